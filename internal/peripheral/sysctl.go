package peripheral

import "github.com/cortexsim/armboard/internal/register"

// SysCtl is a generic register-file-backed peripheral standing in for
// a board's clock-gating/reset-control block (RCGCGPIO on TM4C,
// RCC on STM32). Every configured offset is a plain RW register reset
// to zero; gating real clock behavior through it is out of scope, so
// reads/writes pass straight through with no side effects.
type SysCtl struct {
	Base
	name string
	size uint32
	file *register.File
}

// NewSysCtl builds a sysctl block from a name->offset register table.
// Its declared size is the highest configured offset rounded up to
// the next 0x100, matching the original implementation's sizing rule.
func NewSysCtl(name string, offsets map[string]uint32) *SysCtl {
	var maxOffset uint32
	for _, off := range offsets {
		if off > maxOffset {
			maxOffset = off
		}
	}
	size := ((maxOffset / 0x100) + 1) * 0x100

	file := register.NewFile()
	for _, off := range offsets {
		file.Add(off, register.NewSimple(0))
	}

	return &SysCtl{name: name, size: size, file: file}
}

func (s *SysCtl) Name() string { return s.name }
func (s *SysCtl) Size() uint32 { return s.size }

func (s *SysCtl) Read(offset uint32, size int) (uint32, error) {
	return s.file.Read(offset, size)
}

func (s *SysCtl) Write(offset uint32, size int, value uint32) error {
	return s.file.Write(offset, size, value)
}

func (s *SysCtl) Reset() { s.file.Reset() }
