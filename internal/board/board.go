package board

import (
	"github.com/cortexsim/armboard/internal/addrspace"
	"github.com/cortexsim/armboard/internal/clockbus"
	"github.com/cortexsim/armboard/internal/cpuengine"
)

// Board is the uniform external surface every concrete board exposes,
// per §4.7.
type Board interface {
	Name() string
	CPU() *cpuengine.CortexM
	AddressSpace() *addrspace.AddressSpace
	Clock() *clockbus.Clock
	InterruptController() *clockbus.InterruptController

	Reset() error
	Step(cycles uint64) error
	Read(addr uint32, size int) (uint32, error)
	Write(addr uint32, size int, value uint32) error

	Close() error
}
