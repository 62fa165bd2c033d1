package stm32f4

import "testing"

func TestSTM32RegisterNameKnownOffsets(t *testing.T) {
	cases := map[uint32]string{
		0x00: "MODER",
		0x14: "ODR",
		0x18: "BSRR",
		0x24: "AFRH",
	}
	for offset, want := range cases {
		if got := stm32RegisterName(offset); got != want {
			t.Errorf("stm32RegisterName(0x%X) = %q, want %q", offset, got, want)
		}
	}
}

func TestSTM32RegisterNameUnknownOffset(t *testing.T) {
	if got := stm32RegisterName(0xFFF); got != "UNKNOWN" {
		t.Fatalf("stm32RegisterName(0xFFF) = %q, want UNKNOWN", got)
	}
}

func TestBoardRegisteredUnderExpectedName(t *testing.T) {
	// init() runs at package load, registering this board under its
	// canonical name into the shared board registry.
	if boardName != "stm32f4" {
		t.Fatalf("boardName = %q, want stm32f4", boardName)
	}
}
