// Package stm32f4 implements the STM32F4 board: a Cortex-M4 part with
// 16-bit GPIO ports addressed directly (ODR/IDR/BSRR), per §4.3.
package stm32f4

import (
	_ "embed"

	"github.com/cortexsim/armboard/internal/board"
	"github.com/cortexsim/armboard/internal/peripheral"
)

//go:embed config.yaml
var defaultConfigYAML []byte

const boardName = "stm32f4"

const frequencyHz = 168_000_000 // STM32F4 max SYSCLK

func init() {
	board.Register(boardName, construct, defaultConfigYAML)
}

// Board wraps the shared composition with STM32-specific
// introspection (the direct-offset memory-access model of §C7a).
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

// DefaultConfigYAML returns the board's bundled configuration, for
// launchers that don't pass an explicit --config override.
func DefaultConfigYAML() []byte { return defaultConfigYAML }

// MemoryAccessModel is the §C7a introspection helper: it decodes a
// GPIO-relative offset into the canonical STM32 register name.
func (b *Board) MemoryAccessModel(offset uint32) string {
	return stm32RegisterName(offset)
}

func stm32RegisterName(offset uint32) string {
	switch offset {
	case peripheral.STM32OffsetMODER:
		return "MODER"
	case peripheral.STM32OffsetOTYPER:
		return "OTYPER"
	case peripheral.STM32OffsetOSPEEDR:
		return "OSPEEDR"
	case peripheral.STM32OffsetPUPDR:
		return "PUPDR"
	case peripheral.STM32OffsetIDR:
		return "IDR"
	case peripheral.STM32OffsetODR:
		return "ODR"
	case peripheral.STM32OffsetBSRR:
		return "BSRR"
	case peripheral.STM32OffsetLCKR:
		return "LCKR"
	case peripheral.STM32OffsetAFRL:
		return "AFRL"
	case peripheral.STM32OffsetAFRH:
		return "AFRH"
	default:
		return "UNKNOWN"
	}
}
