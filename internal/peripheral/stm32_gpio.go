package peripheral

import (
	"github.com/cortexsim/armboard/internal/register"
	"github.com/cortexsim/armboard/internal/simerr"
)

// STM32 GPIO register offsets, canonical per the family reference
// manual (§6 of the governing specification).
const (
	STM32OffsetMODER   = 0x00
	STM32OffsetOTYPER  = 0x04
	STM32OffsetOSPEEDR = 0x08
	STM32OffsetPUPDR   = 0x0C
	STM32OffsetIDR     = 0x10
	STM32OffsetODR     = 0x14
	STM32OffsetBSRR    = 0x18
	STM32OffsetLCKR    = 0x1C
	STM32OffsetAFRL    = 0x20
	STM32OffsetAFRH    = 0x24

	STM32PortSize = 0x400
)

// STM32GPIO models a 16-bit STM32 GPIO port: ODR/IDR/BSRR carry the
// hardware-specific semantics; the remaining configuration registers
// are stubbed as simple RW storage since their electrical effects are
// out of scope.
type STM32GPIO struct {
	Base
	name string
	file *register.File

	odr          *register.Simple
	idr          *register.ReadOnly
	externalSet  bool
	externalData uint16
}

// NewSTM32GPIO builds a port with all registers installed.
func NewSTM32GPIO(name string) *STM32GPIO {
	g := &STM32GPIO{name: name, file: register.NewFile()}

	g.odr = register.NewSimple(0)
	g.idr = register.NewReadOnly(0)

	g.file.Add(STM32OffsetMODER, register.NewSimple(0))
	g.file.Add(STM32OffsetOTYPER, register.NewSimple(0))
	g.file.Add(STM32OffsetOSPEEDR, register.NewSimple(0))
	g.file.Add(STM32OffsetPUPDR, register.NewSimple(0))
	g.file.Add(STM32OffsetLCKR, register.NewSimple(0))
	g.file.Add(STM32OffsetAFRL, register.NewSimple(0))
	g.file.Add(STM32OffsetAFRH, register.NewSimple(0))

	g.file.Add(STM32OffsetODR, &register.Custom{
		OnRead:  g.odr.Read,
		OnWrite: func(size int, value uint32) { g.odr.Write(size, value&0xFFFF) },
		OnReset: g.odr.Reset,
	})
	g.file.Add(STM32OffsetIDR, &register.Custom{
		OnRead: func(size int) uint32 {
			if g.externalSet {
				return uint32(g.externalData) & mask16(size)
			}
			return g.odr.Read(size) & mask16(size)
		},
		OnReset: func() { g.externalSet = false },
	})
	g.file.Add(STM32OffsetBSRR, register.NewWriteOnly(0, func(size int, value uint32) {
		set := value & 0xFFFF
		reset := (value >> 16) & 0xFFFF
		cur := g.odr.Read(4)
		g.odr.Write(4, (cur|set)&^reset)
	}))

	return g
}

func mask16(size int) uint32 {
	if size >= 4 {
		return 0xFFFFFFFF
	}
	if size == 2 {
		return 0xFFFF
	}
	return 0xFF
}

func (g *STM32GPIO) Name() string { return g.name }
func (g *STM32GPIO) Size() uint32 { return STM32PortSize }

func (g *STM32GPIO) Read(offset uint32, size int) (uint32, error) {
	return g.file.Read(offset, size)
}

func (g *STM32GPIO) Write(offset uint32, size int, value uint32) error {
	if offset == STM32OffsetBSRR && size != 4 {
		return simerr.New(simerr.KindProgramming, "BSRR must be accessed as a 32-bit word, got size %d", size)
	}
	return g.file.Write(offset, size, value)
}

func (g *STM32GPIO) Reset() { g.file.Reset() }

// SetExternalInput overrides IDR with an externally driven port value
// instead of loopback from ODR, for test harnesses driving inputs.
func (g *STM32GPIO) SetExternalInput(value uint16) {
	g.externalSet = true
	g.externalData = value
}

// PortState returns the current ODR value, the convenience accessor
// the original board layer exposes for GUI/test observers.
func (g *STM32GPIO) PortState() uint16 {
	return uint16(g.odr.Read(4))
}

// SetPin sets or clears a single output pin through the same path
// BSRR would use.
func (g *STM32GPIO) SetPin(pin uint, level PinLevel) {
	cur := g.odr.Read(4)
	bit := uint32(1) << pin
	if level == PinHigh {
		g.odr.Write(4, cur|bit)
	} else {
		g.odr.Write(4, cur&^bit)
	}
}
