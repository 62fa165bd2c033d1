package stm32c031

import "testing"

func TestBoardRegisteredUnderExpectedName(t *testing.T) {
	if boardName != "stm32c031" {
		t.Fatalf("boardName = %q, want stm32c031", boardName)
	}
}

func TestGPIOFactoryBuildsSTM32Port(t *testing.T) {
	p := gpioFactory("PORTA", 0)
	if p == nil {
		t.Fatal("gpioFactory returned nil peripheral")
	}
	if p.Size() == 0 {
		t.Fatal("stm32c031 GPIO port should occupy a non-zero register window")
	}
}

func TestDefaultConfigYAMLEmbedded(t *testing.T) {
	if len(DefaultConfigYAML()) == 0 {
		t.Fatal("DefaultConfigYAML() should return the embedded config.yaml contents")
	}
}
