// Package stm32c031 implements the STM32C031 board: a Cortex-M0+
// part sharing the STM32 GPIO family with stm32f4 but with a much
// smaller flash/RAM footprint and fewer ports.
package stm32c031

import (
	_ "embed"

	"github.com/cortexsim/armboard/internal/board"
	"github.com/cortexsim/armboard/internal/peripheral"
)

//go:embed config.yaml
var defaultConfigYAML []byte

const boardName = "stm32c031"

const frequencyHz = 48_000_000 // STM32C031 max SYSCLK

func init() {
	board.Register(boardName, construct, defaultConfigYAML)
}

type Board struct {
	*board.Generic
}

func construct(cfg board.Config) (board.Board, error) {
	g, err := board.NewGeneric(boardName, cfg, gpioFactory, frequencyHz)
	if err != nil {
		return nil, err
	}
	return &Board{Generic: g}, nil
}

func gpioFactory(portName string, mask uint32) peripheral.Peripheral {
	return peripheral.NewSTM32GPIO(portName)
}

func DefaultConfigYAML() []byte { return defaultConfigYAML }
