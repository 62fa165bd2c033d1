package peripheral

import "testing"

func TestTM4CMaskedDataWrites(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)

	// diff=8 -> m = (8>>2)&0xFF = 2
	if err := g.Write(0x008, 4, 0xFF); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v, _ := g.Read(TM4CDataWindowEnd, 4); v != 0x02 {
		t.Fatalf("DATA after first masked write = 0x%X, want 0x02", v)
	}

	// diff=4 -> m = 1
	if err := g.Write(0x004, 4, 0xFF); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v, _ := g.Read(TM4CDataWindowEnd, 4); v != 0x03 {
		t.Fatalf("DATA after second masked write = 0x%X, want 0x03", v)
	}

	if err := g.Write(0x008, 4, 0x00); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v, _ := g.Read(TM4CDataWindowEnd, 4); v != 0x01 {
		t.Fatalf("DATA after clearing bit 1 = 0x%X, want 0x01", v)
	}
}

func TestTM4CMaskedDataWriteRequires32Bit(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	if err := g.Write(0x008, 2, 0xFF); err == nil {
		t.Fatal("expected a validation error for a non-32-bit masked DATA write")
	}
}

func TestTM4CMaskedDataReadAtOffsetZeroIsFullRegister(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	g.Write(0x000, 4, 0x2A) // diff==0: full-register direct write
	if v, _ := g.Read(0x000, 4); v != 0x2A {
		t.Fatalf("direct DATA read = 0x%X, want 0x2A", v)
	}
}

func TestTM4CDIRReadMasksToPortMask(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0x1F) // 5-pin port
	g.Write(TM4COffsetDIR, 4, 0xFF)
	if v, _ := g.Read(TM4COffsetDIR, 4); v != 0x1F {
		t.Fatalf("DIR = 0x%X, want masked to port mask 0x1F", v)
	}
}

func TestTM4CMISIsRISAndIM(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	g.Write(TM4COffsetIM, 4, 0x06)
	g.RaiseInterrupt(1)
	g.RaiseInterrupt(3)
	if v, _ := g.Read(TM4COffsetRIS, 4); v != 0x0A {
		t.Fatalf("RIS = 0x%X, want 0xA (bits 1 and 3 set)", v)
	}
	if v, _ := g.Read(TM4COffsetMIS, 4); v != 0x02 {
		t.Fatalf("MIS = 0x%X, want RIS&IM = 0x2", v)
	}
}

func TestTM4CICRClearsRIS(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	g.RaiseInterrupt(0)
	g.RaiseInterrupt(2)
	g.Write(TM4COffsetICR, 4, 0x01)
	if v, _ := g.Read(TM4COffsetRIS, 4); v != 0x04 {
		t.Fatalf("RIS after ICR clear = 0x%X, want 0x4", v)
	}
}

func TestTM4CPinModeFromDirAndAfsel(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	g.Write(TM4COffsetDIR, 4, 0x01)
	g.Write(TM4COffsetAFSEL, 4, 0x02)
	if m := g.PinMode(0, 0x02); m != PinOutput {
		t.Fatalf("pin 0 mode = %v, want PinOutput", m)
	}
	if m := g.PinMode(1, 0x02); m != PinAlternate {
		t.Fatalf("pin 1 mode = %v, want PinAlternate", m)
	}
	if m := g.PinMode(2, 0x02); m != PinInput {
		t.Fatalf("pin 2 mode = %v, want PinInput", m)
	}
}

func TestTM4CResetClearsData(t *testing.T) {
	g := NewTM4C123GPIO("PORTF", 0xFF)
	g.Write(0x000, 4, 0xFF)
	g.Reset()
	if v, _ := g.Read(TM4CDataWindowEnd, 4); v != 0 {
		t.Fatalf("DATA after Reset = 0x%X, want 0", v)
	}
}
