package simerr

import (
	"errors"
	"testing"
)

func TestNewAtFormatsAddress(t *testing.T) {
	err := NewAt(KindMemoryBounds, 0x2000, "access of size %d exceeds region", 4)
	want := "memory bounds error at 0x00002000: access of size 4 exceeds region"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewHasNoAddress(t *testing.T) {
	err := New(KindConfiguration, "missing key %q", "memory.flash_size")
	want := `configuration error: missing key "memory.flash_size"`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsClassifiesKind(t *testing.T) {
	err := New(KindProgramming, "boom")
	if !Is(err, KindProgramming) {
		t.Fatal("Is should match the error's own kind")
	}
	if Is(err, KindRuntime) {
		t.Fatal("Is should not match a different kind")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying failure")
	err := Wrap(KindRuntime, cause, "engine fault")
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should see through Wrap to the cause")
	}
}

func TestWrapErrorIncludesCause(t *testing.T) {
	cause := errors.New("no such file or directory")
	err := Wrap(KindConfiguration, cause, "loading config")
	want := "configuration error: loading config: no such file or directory"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
