package peripheral

import (
	"github.com/cortexsim/armboard/internal/register"
	"github.com/cortexsim/armboard/internal/simerr"
)

// TM4C123 GPIO register offsets (§6 of the governing specification).
const (
	TM4CDataWindowEnd = 0x3FC // masked DATA window is [0x000, 0x3FC]

	TM4COffsetDIR   = 0x400
	TM4COffsetIS    = 0x404
	TM4COffsetIBE   = 0x408
	TM4COffsetIEV   = 0x40C
	TM4COffsetIM    = 0x410
	TM4COffsetRIS   = 0x414
	TM4COffsetMIS   = 0x418
	TM4COffsetICR   = 0x41C
	TM4COffsetAFSEL = 0x420
	TM4COffsetDEN   = 0x51C

	TM4CPortSize = 0x1000
)

// TM4C123GPIO models an 8-bit TM4C123 GPIO port. The DATA register
// occupies the masked window [0x000, 0x3FC]: the address itself
// encodes a pin mask, per §4.3. diff == 0 is treated as a direct,
// unmasked full-register access (the "full-register direct" reading
// of the open question in §9).
type TM4C123GPIO struct {
	Base
	name     string
	portMask uint32

	data uint32 // stored 8-bit port data, widened to 32 bits
	dir  uint32
	im   uint32
	ris  *register.ReadOnly

	file *register.File
}

// NewTM4C123GPIO builds a port; portMask is usually 0xFF for a
// full 8-pin port.
func NewTM4C123GPIO(name string, portMask uint32) *TM4C123GPIO {
	g := &TM4C123GPIO{name: name, portMask: portMask, file: register.NewFile()}
	g.ris = register.NewReadOnly(0)

	g.file.Add(TM4COffsetDIR, &register.Custom{
		OnRead:  func(size int) uint32 { return g.dir & uint32(0xFF) },
		OnWrite: func(size int, value uint32) { g.dir = value & uint32(0xFF) & g.portMask },
	})
	g.file.Add(TM4COffsetIS, register.NewSimple(0))
	g.file.Add(TM4COffsetIBE, register.NewSimple(0))
	g.file.Add(TM4COffsetIEV, register.NewSimple(0))
	g.file.Add(TM4COffsetIM, &register.Custom{
		OnRead:  func(size int) uint32 { return g.im & uint32(0xFF) },
		OnWrite: func(size int, value uint32) { g.im = value & uint32(0xFF) & g.portMask },
	})
	g.file.Add(TM4COffsetRIS, g.ris)
	g.file.Add(TM4COffsetMIS, &register.Custom{
		OnRead: func(size int) uint32 { return (g.ris.Raw() & g.im) & uint32(0xFF) },
	})
	g.file.Add(TM4COffsetICR, register.NewWriteOnly(0, func(size int, value uint32) {
		g.ris.Set(g.ris.Raw() &^ (value & uint32(0xFF)))
	}))
	afsel := uint32(0)
	g.file.Add(TM4COffsetAFSEL, &register.Custom{
		OnRead:  func(size int) uint32 { return afsel & uint32(0xFF) },
		OnWrite: func(size int, value uint32) { afsel = value & uint32(0xFF) & g.portMask },
		OnReset: func() { afsel = 0 },
	})
	g.file.Add(TM4COffsetDEN, register.NewSimple(0xFF))

	return g
}

func (g *TM4C123GPIO) Name() string { return g.name }
func (g *TM4C123GPIO) Size() uint32 { return TM4CPortSize }

func (g *TM4C123GPIO) Read(offset uint32, size int) (uint32, error) {
	if offset <= TM4CDataWindowEnd {
		return g.readMaskedData(offset), nil
	}
	return g.file.Read(offset, size)
}

func (g *TM4C123GPIO) Write(offset uint32, size int, value uint32) error {
	if offset <= TM4CDataWindowEnd {
		return g.writeMaskedData(offset, size, value)
	}
	return g.file.Write(offset, size, value)
}

func (g *TM4C123GPIO) readMaskedData(diff uint32) uint32 {
	if diff == 0 {
		return g.data & g.portMask
	}
	m := (diff >> 2) & g.portMask
	return g.data & m
}

func (g *TM4C123GPIO) writeMaskedData(diff uint32, size int, value uint32) error {
	if diff == 0 {
		g.data = value & g.portMask
		return nil
	}
	if size != 4 {
		return simerr.NewAt(simerr.KindProgramming, diff, "masked DATA write at non-zero offset requires 32-bit access, got size %d", size)
	}
	m := (diff >> 2) & g.portMask
	g.data = (g.data &^ m) | (value & m)
	return nil
}

func (g *TM4C123GPIO) Reset() {
	g.data = 0
	g.dir = 0
	g.im = 0
	g.ris.Reset()
	g.file.Reset()
}

// PinMode returns the effective mode of a pin from its DIR/AFSEL bits.
func (g *TM4C123GPIO) PinMode(pin uint, afsel uint32) PinMode {
	bit := uint32(1) << pin
	switch {
	case g.dir&bit != 0:
		return PinOutput
	case afsel&bit != 0:
		return PinAlternate
	default:
		return PinInput
	}
}

// RaiseInterrupt sets a bit in RIS, as a GPIO edge/level detector
// would, and emits through the attached interrupt sink if the
// corresponding IM bit is set.
func (g *TM4C123GPIO) RaiseInterrupt(pin uint) {
	bit := uint32(1) << pin
	g.ris.Set(g.ris.Raw() | bit)
	if g.im&bit != 0 {
		g.EmitInterrupt(int(pin))
	}
}
