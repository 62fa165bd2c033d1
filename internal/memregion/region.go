package memregion

import (
	"encoding/binary"

	"github.com/cortexsim/armboard/internal/simerr"
)

// Region is the common contract every memory container implements.
// The MMIO window intentionally rejects direct Read/Write; it exists
// only so AddressSpace can recognize the range and dispatch to a
// registered peripheral instead.
type Region interface {
	Name() string
	Range() Range
	Read(addr uint32, size int) (uint32, error)
	Write(addr uint32, size int, value uint32) error
	ReadBlock(addr, size uint32) ([]byte, error)
	Reset()
}

func decodeLE(buf []byte, size int) uint32 {
	switch size {
	case 1:
		return uint32(buf[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(buf))
	default:
		return binary.LittleEndian.Uint32(buf)
	}
}

func encodeLE(buf []byte, size int, value uint32) {
	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(value))
	default:
		binary.LittleEndian.PutUint32(buf, value)
	}
}

func boundsCheck(r Range, addr uint32, size int) error {
	if addr < r.Base || uint64(addr)+uint64(size) > uint64(r.End()) {
		return simerr.NewAt(simerr.KindMemoryBounds, addr, "access of size %d exceeds region %s", size, r)
	}
	return nil
}

// Flash is a read-only, image-loadable region. Writes always fail with
// a permission error; Reset is a no-op since flash content survives
// board resets.
type Flash struct {
	rng  Range
	data []byte
}

func NewFlash(base, size uint32) *Flash {
	return &Flash{rng: Range{Base: base, Size: size}, data: make([]byte, size)}
}

func (f *Flash) Name() string { return "flash" }
func (f *Flash) Range() Range { return f.rng }

// LoadImage writes image starting at offset 0, failing if it overruns
// the region.
func (f *Flash) LoadImage(image []byte) error {
	if uint32(len(image)) > f.rng.Size {
		return simerr.New(simerr.KindMemoryBounds, "firmware image of %d bytes exceeds flash size %d", len(image), f.rng.Size)
	}
	copy(f.data, image)
	return nil
}

func (f *Flash) Read(addr uint32, size int) (uint32, error) {
	if err := boundsCheck(f.rng, addr, size); err != nil {
		return 0, err
	}
	off := addr - f.rng.Base
	return decodeLE(f.data[off:off+uint32(size)], size), nil
}

func (f *Flash) Write(addr uint32, size int, value uint32) error {
	return simerr.NewAt(simerr.KindMemoryPermission, addr, "flash is read-only")
}

// ProgramAt reprograms size bytes starting at addr, bypassing the
// normal read-only permission check. This is how a debugger writes
// firmware into flash after boot (§4.8 write_mem); it does not go
// through Write because flash is read-only to the running program,
// not to the debugger that owns it.
func (f *Flash) ProgramAt(addr uint32, data []byte) error {
	if err := boundsCheck(f.rng, addr, len(data)); err != nil {
		return err
	}
	off := addr - f.rng.Base
	copy(f.data[off:off+uint32(len(data))], data)
	return nil
}

func (f *Flash) ReadBlock(addr, size uint32) ([]byte, error) {
	if err := boundsCheck(f.rng, addr, int(size)); err != nil {
		return nil, err
	}
	off := addr - f.rng.Base
	out := make([]byte, size)
	copy(out, f.data[off:off+size])
	return out, nil
}

func (f *Flash) Reset() {}

// RAM is a writable region zeroed on reset.
type RAM struct {
	rng  Range
	data []byte
}

func NewRAM(base, size uint32) *RAM {
	return &RAM{rng: Range{Base: base, Size: size}, data: make([]byte, size)}
}

func (m *RAM) Name() string { return "ram" }
func (m *RAM) Range() Range { return m.rng }

func (m *RAM) Read(addr uint32, size int) (uint32, error) {
	if err := boundsCheck(m.rng, addr, size); err != nil {
		return 0, err
	}
	off := addr - m.rng.Base
	return decodeLE(m.data[off:off+uint32(size)], size), nil
}

func (m *RAM) Write(addr uint32, size int, value uint32) error {
	if err := boundsCheck(m.rng, addr, size); err != nil {
		return err
	}
	off := addr - m.rng.Base
	encodeLE(m.data[off:off+uint32(size)], size, value)
	return nil
}

func (m *RAM) ReadBlock(addr, size uint32) ([]byte, error) {
	if err := boundsCheck(m.rng, addr, int(size)); err != nil {
		return nil, err
	}
	off := addr - m.rng.Base
	out := make([]byte, size)
	copy(out, m.data[off:off+size])
	return out, nil
}

func (m *RAM) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// MMIOWindow is purely declarative: it marks a range as dispatch-only.
// Direct Read/Write on it is a programming error; AddressSpace routes
// accesses in its range to registered peripherals instead.
type MMIOWindow struct {
	rng Range
}

func NewMMIOWindow(base, size uint32) *MMIOWindow {
	return &MMIOWindow{rng: Range{Base: base, Size: size}}
}

func (w *MMIOWindow) Name() string { return "mmio" }
func (w *MMIOWindow) Range() Range { return w.rng }

func (w *MMIOWindow) Read(addr uint32, size int) (uint32, error) {
	return 0, simerr.NewAt(simerr.KindProgramming, addr, "direct read of the MMIO window is not supported; route through the address space")
}

func (w *MMIOWindow) Write(addr uint32, size int, value uint32) error {
	return simerr.NewAt(simerr.KindProgramming, addr, "direct write of the MMIO window is not supported; route through the address space")
}

func (w *MMIOWindow) ReadBlock(addr, size uint32) ([]byte, error) {
	return nil, simerr.NewAt(simerr.KindProgramming, addr, "MMIO window has no block representation")
}

func (w *MMIOWindow) Reset() {}

// BitBandAlias is an address-translating view over a 1 MiB target
// region (RAM or an MMIO-mapped peripheral), exposing each bit of the
// target as a 32-bit word in a 32 MiB alias window.
type BitBandAlias struct {
	rng                Range
	target             Range
	targetIsPeripheral bool
}

func NewBitBandAlias(aliasBase, aliasSize, targetBase, targetSize uint32, targetIsPeripheral bool) *BitBandAlias {
	return &BitBandAlias{
		rng:                Range{Base: aliasBase, Size: aliasSize},
		target:             Range{Base: targetBase, Size: targetSize},
		targetIsPeripheral: targetIsPeripheral,
	}
}

func (b *BitBandAlias) Name() string             { return "bitband" }
func (b *BitBandAlias) Range() Range             { return b.rng }
func (b *BitBandAlias) Target() Range            { return b.target }
func (b *BitBandAlias) TargetIsPeripheral() bool { return b.targetIsPeripheral }

// Translate converts an alias address into the underlying target word
// address and the bit index within that word, per the ARM bit-band
// formula: off = addr - alias_base; target_off = (off/32)*4; bit = (off%32)/4.
func (b *BitBandAlias) Translate(addr uint32) (targetAddr uint32, bit uint, err error) {
	if !b.rng.Contains(addr) {
		return 0, 0, simerr.NewAt(simerr.KindMemoryBounds, addr, "address outside bit-band alias range %s", b.rng)
	}
	off := addr - b.rng.Base
	targetOff := (off / 32) * 4
	bitIdx := (off % 32) / 4
	targetAddr = b.target.Base + targetOff
	if !b.target.Contains(targetAddr) {
		return 0, 0, simerr.NewAt(simerr.KindMemoryBounds, addr, "bit-band translation target 0x%08X outside target range %s", targetAddr, b.target)
	}
	return targetAddr, uint(bitIdx), nil
}

// BitBandAlias never serves direct reads/writes; the address space
// performs the read-modify-write against the translated target.
func (b *BitBandAlias) Read(addr uint32, size int) (uint32, error) {
	return 0, simerr.NewAt(simerr.KindProgramming, addr, "bit-band alias has no direct read; use Translate")
}

func (b *BitBandAlias) Write(addr uint32, size int, value uint32) error {
	return simerr.NewAt(simerr.KindProgramming, addr, "bit-band alias has no direct write; use Translate")
}

func (b *BitBandAlias) ReadBlock(addr, size uint32) ([]byte, error) {
	return nil, simerr.NewAt(simerr.KindProgramming, addr, "bit-band alias has no block representation")
}

func (b *BitBandAlias) Reset() {}
