package cpuengine

import (
	"encoding/binary"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/cortexsim/armboard/internal/simerr"
)

// regMap translates the CortexM register indices above into the
// engine's own ARM register constants.
var regMap = [NumRegisters]int{
	uc.ARM_REG_R0, uc.ARM_REG_R1, uc.ARM_REG_R2, uc.ARM_REG_R3,
	uc.ARM_REG_R4, uc.ARM_REG_R5, uc.ARM_REG_R6, uc.ARM_REG_R7,
	uc.ARM_REG_R8, uc.ARM_REG_R9, uc.ARM_REG_R10, uc.ARM_REG_R11,
	uc.ARM_REG_R12, uc.ARM_REG_SP, uc.ARM_REG_LR, uc.ARM_REG_PC,
	uc.ARM_REG_CPSR, uc.ARM_REG_R13,
}

// UnicornEngine implements Engine over the Unicorn CPU emulator
// framework, created as an ARM engine in Thumb mode (no CPU model is
// selected explicitly). This is the "trusted ARM Thumb execution engine" external
// collaborator assumed by the design: CortexM never reaches into
// Unicorn directly, only through this adapter.
type UnicornEngine struct {
	mu uc.Unicorn
}

func NewUnicornEngine() (*UnicornEngine, error) {
	mu, err := uc.NewUnicorn(uc.ARCH_ARM, uc.MODE_THUMB)
	if err != nil {
		return nil, simerr.Wrap(simerr.KindRuntime, err, "failed to initialize execution engine")
	}
	return &UnicornEngine{mu: mu}, nil
}

func (e *UnicornEngine) Map(base, size uint32) error {
	rounded := pageRoundUp(size)
	if err := e.mu.MemMap(uint64(base), uint64(rounded)); err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "failed to map 0x%08X/0x%X into the execution engine", base, rounded)
	}
	return nil
}

func (e *UnicornEngine) WriteBytes(addr uint32, data []byte) error {
	if err := e.mu.MemWrite(uint64(addr), data); err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "engine memory write at 0x%08X failed", addr)
	}
	return nil
}

func (e *UnicornEngine) ReadBytes(addr uint32, size uint32) ([]byte, error) {
	data, err := e.mu.MemRead(uint64(addr), uint64(size))
	if err != nil {
		return nil, simerr.Wrap(simerr.KindRuntime, err, "engine memory read at 0x%08X failed", addr)
	}
	return data, nil
}

func (e *UnicornEngine) SetReg(index int, value uint32) error {
	if err := e.mu.RegWrite(regMap[index], uint64(value)); err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "engine register write failed for index %d", index)
	}
	return nil
}

func (e *UnicornEngine) GetReg(index int) (uint32, error) {
	v, err := e.mu.RegRead(regMap[index])
	if err != nil {
		return 0, simerr.Wrap(simerr.KindRuntime, err, "engine register read failed for index %d", index)
	}
	return uint32(v), nil
}

// AddMemHook installs a combined read/write hook over [begin, end).
// The read callback runs before Unicorn serves the access and is
// expected to mem_write the resolved value so the engine's own read
// returns it; the write callback runs after Unicorn has already
// written its own copy, at which point the address space becomes
// authoritative for any side effects.
func (e *UnicornEngine) AddMemHook(begin, end uint32, onRead func(addr uint32, size int) uint32, onWrite func(addr uint32, size int, value uint32)) error {
	cb := func(mu uc.Unicorn, access int, addr64 uint64, size int, value int64) {
		addr := uint32(addr64)
		switch access {
		case uc.MEM_READ:
			if onRead == nil {
				return
			}
			v := onRead(addr, size)
			buf := make([]byte, size)
			switch size {
			case 1:
				buf[0] = byte(v)
			case 2:
				binary.LittleEndian.PutUint16(buf, uint16(v))
			default:
				binary.LittleEndian.PutUint32(buf, v)
			}
			_ = mu.MemWrite(addr64, buf)
		case uc.MEM_WRITE:
			if onWrite != nil {
				onWrite(addr, size, uint32(value))
			}
		}
	}
	_, err := e.mu.HookAdd(uc.HOOK_MEM_READ|uc.HOOK_MEM_WRITE, cb, uint64(begin), uint64(end))
	if err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "failed to install MMIO hook over [0x%08X, 0x%08X)", begin, end)
	}
	return nil
}

// AddWatchHook installs a pure observer over every memory access in
// the address space, used by the debug session to detect watchpoint
// hits. Unlike AddMemHook it never writes back to engine memory; it
// only reports what happened.
func (e *UnicornEngine) AddWatchHook(onAccess func(addr uint32, size int, isWrite bool)) error {
	cb := func(mu uc.Unicorn, access int, addr64 uint64, size int, value int64) {
		if onAccess == nil {
			return
		}
		onAccess(uint32(addr64), size, access == uc.MEM_WRITE)
	}
	_, err := e.mu.HookAdd(uc.HOOK_MEM_READ|uc.HOOK_MEM_WRITE, cb, 0, 0xFFFFFFFF)
	if err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "failed to install watchpoint observer hook")
	}
	return nil
}

// Step executes exactly one instruction starting at pc. The Thumb
// mode bit (LSB) must already be set by the caller.
func (e *UnicornEngine) Step(pc uint32) error {
	err := e.mu.StartWithOptions(uint64(pc), 0, &uc.UcOptions{Count: 1})
	if err != nil {
		return simerr.NewAt(simerr.KindRuntime, pc, "execution engine fault: %v", err)
	}
	return nil
}

func (e *UnicornEngine) Close() error {
	return e.mu.Close()
}
