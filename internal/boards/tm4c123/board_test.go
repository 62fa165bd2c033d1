package tm4c123

import "testing"

func TestMemoryAccessModelRecognizesMaskedDataWindow(t *testing.T) {
	b := &Board{}
	if got := b.MemoryAccessModel(0x008); got != "DATA_MASKED" {
		t.Fatalf("MemoryAccessModel(0x008) = %q, want DATA_MASKED", got)
	}
	if got := b.MemoryAccessModel(0x3FC); got != "DATA_MASKED" {
		t.Fatalf("MemoryAccessModel(0x3FC) = %q, want DATA_MASKED", got)
	}
}

func TestMemoryAccessModelControlRegisters(t *testing.T) {
	b := &Board{}
	cases := map[uint32]string{
		0x400: "DIR",
		0x410: "IM",
		0x414: "RIS",
		0x41C: "ICR",
	}
	for offset, want := range cases {
		if got := b.MemoryAccessModel(offset); got != want {
			t.Errorf("MemoryAccessModel(0x%X) = %q, want %q", offset, got, want)
		}
	}
}

func TestMemoryAccessModelUnknownOffset(t *testing.T) {
	b := &Board{}
	if got := b.MemoryAccessModel(0xFFFF); got != "UNKNOWN" {
		t.Fatalf("MemoryAccessModel(0xFFFF) = %q, want UNKNOWN", got)
	}
}

func TestGPIOFactoryDefaultsPortMask(t *testing.T) {
	p := gpioFactory("PORTF", 0)
	if p.Size() == 0 {
		t.Fatal("gpioFactory should build a usable peripheral even with a zero mask")
	}
	if err := p.Write(0x000, 4, 0xFFFFFFFF); err != nil {
		t.Fatalf("DATA write: %v", err)
	}
	if v, err := p.Read(0x000, 4); err != nil || v != 0xFF {
		t.Fatalf("DATA read = 0x%X, %v; want 0xFF (default 8-pin port mask)", v, err)
	}
}
