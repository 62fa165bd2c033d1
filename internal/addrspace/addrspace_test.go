package addrspace

import (
	"testing"

	"github.com/cortexsim/armboard/internal/memregion"
	"github.com/cortexsim/armboard/internal/register"
)

// fakePeripheral is a minimal register-file-backed peripheral used
// only to exercise AddressSpace's dispatch and overlap-detection
// logic in isolation from any concrete GPIO/sysctl device.
type fakePeripheral struct {
	name string
	size uint32
	file *register.File
}

func newFakePeripheral(name string, size uint32) *fakePeripheral {
	f := register.NewFile()
	f.Add(0, register.NewSimple(0))
	return &fakePeripheral{name: name, size: size, file: f}
}

func (p *fakePeripheral) Name() string { return p.name }
func (p *fakePeripheral) Size() uint32 { return p.size }
func (p *fakePeripheral) Read(offset uint32, size int) (uint32, error) {
	return p.file.Read(offset, size)
}
func (p *fakePeripheral) Write(offset uint32, size int, value uint32) error {
	return p.file.Write(offset, size, value)
}
func (p *fakePeripheral) Reset()             { p.file.Reset() }
func (p *fakePeripheral) Tick(cycles uint64) {}

func newTestSpace() *AddressSpace {
	flash := memregion.NewFlash(0x08000000, 0x1000)
	ram := memregion.NewRAM(0x20000000, 0x1000)
	mmio := memregion.NewMMIOWindow(0x40000000, 0x100000)
	return New(flash, ram, mmio)
}

func TestRegisterPeripheralRejectsOverlap(t *testing.T) {
	space := newTestSpace()
	if err := space.RegisterPeripheral(0x40000000, 0x400, newFakePeripheral("a", 0x400)); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := space.RegisterPeripheral(0x40000200, 0x400, newFakePeripheral("b", 0x400)); err == nil {
		t.Fatal("expected an overlap error")
	}
	if err := space.RegisterPeripheral(0x40000400, 0x400, newFakePeripheral("c", 0x400)); err != nil {
		t.Fatalf("adjacent, non-overlapping registration should succeed: %v", err)
	}
}

func TestRegisterPeripheralRejectsOutsideMMIO(t *testing.T) {
	space := newTestSpace()
	if err := space.RegisterPeripheral(0x20000000, 0x100, newFakePeripheral("a", 0x100)); err == nil {
		t.Fatal("expected an error registering a peripheral outside the MMIO window")
	}
}

func TestMMIODispatch(t *testing.T) {
	space := newTestSpace()
	p := newFakePeripheral("p", 0x400)
	if err := space.RegisterPeripheral(0x40001000, 0x400, p); err != nil {
		t.Fatalf("RegisterPeripheral: %v", err)
	}
	if err := space.Write(0x40001000, 4, 0x1234); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v, err := space.Read(0x40001000, 4); err != nil || v != 0x1234 {
		t.Fatalf("Read = (0x%X, %v), want (0x1234, nil)", v, err)
	}
}

func TestMMIOUnmappedAddress(t *testing.T) {
	space := newTestSpace()
	if _, err := space.Read(0x40005000, 4); err == nil {
		t.Fatal("expected a memory access error for an unmapped MMIO address")
	}
}

func TestAlignmentEnforced(t *testing.T) {
	space := newTestSpace()
	if _, err := space.Read(0x20000001, 4); err == nil {
		t.Fatal("expected an alignment error for a misaligned 4-byte access")
	}
	if _, err := space.Read(0x20000001, 1); err != nil {
		t.Fatalf("byte access is always aligned: %v", err)
	}
}

func TestInvalidAccessSize(t *testing.T) {
	space := newTestSpace()
	if _, err := space.Read(0x20000000, 3); err == nil {
		t.Fatal("expected an access error for a 3-byte access")
	}
}

func TestBitBandWriteAndReadback(t *testing.T) {
	space := newTestSpace()
	space.AddBitBandAlias(memregion.NewBitBandAlias(0x22000000, 0x01000000, 0x20000000, 0x1000, false))

	if err := space.Write(0x20000000, 4, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// bit 3 of word at 0x20000000: off = 0*32 + 3*4 = 12
	if err := space.Write(0x22000000+12, 4, 1); err != nil {
		t.Fatalf("bit-band Write: %v", err)
	}
	if v, err := space.Read(0x20000000, 4); err != nil || v != 0x8 {
		t.Fatalf("Read underlying word = (0x%X, %v), want (0x8, nil)", v, err)
	}
	if v, err := space.Read(0x22000000+12, 4); err != nil || v != 1 {
		t.Fatalf("bit-band Read = (0x%X, %v), want (1, nil)", v, err)
	}
	if v, err := space.Read(0x22000000, 4); err != nil || v != 0 {
		t.Fatalf("untouched bit-band Read = (0x%X, %v), want (0, nil)", v, err)
	}
}

func TestBitBandRequiresWordAccess(t *testing.T) {
	space := newTestSpace()
	space.AddBitBandAlias(memregion.NewBitBandAlias(0x22000000, 0x01000000, 0x20000000, 0x1000, false))
	if _, err := space.Read(0x22000000, 2); err == nil {
		t.Fatal("expected an error for a non-32-bit bit-band access")
	}
}

func TestResetZeroesRAMAndPeripheralsLeavesFlash(t *testing.T) {
	space := newTestSpace()
	p := newFakePeripheral("p", 0x400)
	space.RegisterPeripheral(0x40001000, 0x400, p)
	space.Flash().LoadImage([]byte{1, 2, 3, 4})
	space.Write(0x20000000, 4, 0xFF)
	space.Write(0x40001000, 4, 0xFF)

	space.Reset()

	if v, _ := space.Read(0x20000000, 4); v != 0 {
		t.Fatalf("RAM after Reset = 0x%X, want 0", v)
	}
	if v, _ := space.Read(0x40001000, 4); v != 0 {
		t.Fatalf("peripheral after Reset = 0x%X, want its reset value 0", v)
	}
	if v, _ := space.Read(0x08000000, 4); v&0xFF != 1 {
		t.Fatalf("flash byte 0 after Reset = 0x%X, want unchanged 1", v&0xFF)
	}
}

func TestFlashWriteIsPermissionError(t *testing.T) {
	space := newTestSpace()
	if err := space.Write(0x08000000, 4, 0); err == nil {
		t.Fatal("expected a permission error writing to flash through the address space")
	}
}
