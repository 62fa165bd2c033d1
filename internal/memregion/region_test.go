package memregion

import "testing"

func TestFlashRoundTrip(t *testing.T) {
	f := NewFlash(0x08000000, 256)
	image := make([]byte, 256)
	copy(image[0:4], []byte{0x00, 0x10, 0x00, 0x20}) // MSP = 0x20001000
	copy(image[4:8], []byte{0x01, 0x01, 0x00, 0x08}) // reset vector = 0x08000101
	if err := f.LoadImage(image); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}

	if v, err := f.Read(0x08000000, 4); err != nil || v != 0x20001000 {
		t.Fatalf("Read MSP = 0x%X, %v, want 0x20001000", v, err)
	}
	if v, err := f.Read(0x08000004, 4); err != nil || v != 0x08000101 {
		t.Fatalf("Read reset vector = 0x%X, %v, want 0x08000101", v, err)
	}
	if err := f.Write(0x08000000, 4, 0); err == nil {
		t.Fatal("expected a permission error writing to flash")
	}
}

func TestFlashImageTooLarge(t *testing.T) {
	f := NewFlash(0x08000000, 16)
	if err := f.LoadImage(make([]byte, 17)); err == nil {
		t.Fatal("expected a bounds error for an oversized image")
	}
}

func TestRAMAlignedRoundTrip(t *testing.T) {
	r := NewRAM(0x20000000, 0x1000)
	if err := r.Write(0x20000010, 4, 0xDEADBEEF); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v, _ := r.Read(0x20000010, 4); v != 0xDEADBEEF {
		t.Fatalf("Read 32 = 0x%X, want 0xDEADBEEF", v)
	}
	if v, _ := r.Read(0x20000010, 1); v != 0xEF {
		t.Fatalf("Read byte 0 = 0x%X, want 0xEF", v)
	}
	if v, _ := r.Read(0x20000013, 1); v != 0xDE {
		t.Fatalf("Read byte 3 = 0x%X, want 0xDE", v)
	}
}

func TestRAMResetZeroes(t *testing.T) {
	r := NewRAM(0x20000000, 16)
	r.Write(0x20000000, 4, 0xFFFFFFFF)
	r.Reset()
	if v, _ := r.Read(0x20000000, 4); v != 0 {
		t.Fatalf("Read after Reset = 0x%X, want 0", v)
	}
}

func TestMMIOWindowRejectsDirectAccess(t *testing.T) {
	w := NewMMIOWindow(0x40000000, 0x100000)
	if _, err := w.Read(0x40000000, 4); err == nil {
		t.Fatal("expected a programming error for direct MMIO read")
	}
	if err := w.Write(0x40000000, 4, 0); err == nil {
		t.Fatal("expected a programming error for direct MMIO write")
	}
}

func TestBitBandTranslate(t *testing.T) {
	bb := NewBitBandAlias(0x22000000, 0x02000000, 0x20000000, 0x00100000, false)

	// off = (0*32) + (3*4) = 12 -> target offset 0, bit 3
	target, bit, err := bb.Translate(0x22000000 + 12)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if target != 0x20000000 || bit != 3 {
		t.Fatalf("Translate = (0x%X, %d), want (0x20000000, 3)", target, bit)
	}
}

func TestBitBandTranslateOutOfRange(t *testing.T) {
	bb := NewBitBandAlias(0x22000000, 0x100, 0x20000000, 0x100, false)
	if _, _, err := bb.Translate(0x22000000 + 0x1000); err == nil {
		t.Fatal("expected a bounds error for an alias address outside the range")
	}
}

func TestRangeContainsAndOverlaps(t *testing.T) {
	a := Range{Base: 0x1000, Size: 0x100}
	if !a.Contains(0x1000) || !a.Contains(0x10FF) {
		t.Fatal("Contains should include both endpoints of [base, base+size)")
	}
	if a.Contains(0x1100) {
		t.Fatal("Contains should exclude the exclusive upper bound")
	}
	b := Range{Base: 0x10FF, Size: 0x10}
	if !a.Overlaps(b) {
		t.Fatal("ranges sharing one address should overlap")
	}
	c := Range{Base: 0x1100, Size: 0x10}
	if a.Overlaps(c) {
		t.Fatal("adjacent, non-overlapping ranges should not overlap")
	}
}
