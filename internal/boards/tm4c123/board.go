// Package tm4c123 implements the TI TM4C123 board: a Cortex-M4 part
// with 8-bit GPIO ports addressed through the masked-DATA window of
// §4.3.
package tm4c123

import (
	_ "embed"

	"github.com/cortexsim/armboard/internal/board"
	"github.com/cortexsim/armboard/internal/peripheral"
)

//go:embed config.yaml
var defaultConfigYAML []byte

const boardName = "tm4c123"

const frequencyHz = 80_000_000 // TM4C123 max SYSCLK

func init() {
	board.Register(boardName, construct, defaultConfigYAML)
}

// Board wraps the shared composition with TM4C-specific introspection
// (the bit-banded memory-access model of §C7a).
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
	if mask == 0 {
		mask = 0xFF
	}
	return peripheral.NewTM4C123GPIO(portName, mask)
}

func DefaultConfigYAML() []byte { return defaultConfigYAML }

// MemoryAccessModel is the §C7a introspection helper: it recognizes
// the masked-DATA window before falling back to the control-register
// offset table, matching the original TM4C123BitBandedAccessModel.
func (b *Board) MemoryAccessModel(offset uint32) string {
	if offset <= peripheral.TM4CDataWindowEnd {
		return "DATA_MASKED"
	}
	switch offset {
	case peripheral.TM4COffsetDIR:
		return "DIR"
	case peripheral.TM4COffsetIS:
		return "IS"
	case peripheral.TM4COffsetIBE:
		return "IBE"
	case peripheral.TM4COffsetIEV:
		return "IEV"
	case peripheral.TM4COffsetIM:
		return "IM"
	case peripheral.TM4COffsetRIS:
		return "RIS"
	case peripheral.TM4COffsetMIS:
		return "MIS"
	case peripheral.TM4COffsetICR:
		return "ICR"
	case peripheral.TM4COffsetAFSEL:
		return "AFSEL"
	case peripheral.TM4COffsetDEN:
		return "DEN"
	default:
		return "UNKNOWN"
	}
}
