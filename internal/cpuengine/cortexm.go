package cpuengine

import (
	"encoding/binary"

	"github.com/cortexsim/armboard/internal/addrspace"
	"github.com/cortexsim/armboard/internal/simerr"
)

// thumbBit is the LSB Cortex-M requires set on any code address to
// select the Thumb instruction set.
const thumbBit = 1

// xpsrThumbBit is bit 24 of XPSR, the T flag.
const xpsrThumbBit = 1 << 24

// Snapshot is a read-only view of CPU state for debug/observer use.
type Snapshot struct {
	Registers        [13]uint32 // R0-R12
	SP, LR, PC       uint32
	XPSR, MSP        uint32
	N, Z, C, V, Q, T bool
}

// CortexM bridges an Engine to an AddressSpace: it owns reset-from-
// vector-table semantics and installs the MMIO hook that routes
// engine accesses through the address space.
type CortexM struct {
	engine Engine
	space  *addrspace.AddressSpace

	flashBase, flashSize uint32
	ramBase, ramSize     uint32
	mmioBase, mmioSize   uint32

	accessObserver func(addr uint32, size int, isWrite bool)
}

// New wires engine to space. FlashBase/Size, ramBase/Size, and
// mmioBase/Size describe the three regions the board has already
// mapped into the engine.
func New(engine Engine, space *addrspace.AddressSpace, flashBase, flashSize, ramBase, ramSize, mmioBase, mmioSize uint32) (*CortexM, error) {
	c := &CortexM{
		engine: engine, space: space,
		flashBase: flashBase, flashSize: flashSize,
		ramBase: ramBase, ramSize: ramSize,
		mmioBase: mmioBase, mmioSize: mmioSize,
	}
	if err := engine.Map(flashBase, flashSize); err != nil {
		return nil, err
	}
	if err := engine.Map(ramBase, ramSize); err != nil {
		return nil, err
	}
	if err := engine.Map(mmioBase, mmioSize); err != nil {
		return nil, err
	}
	routeThroughSpace := func(addr uint32, size int) uint32 {
		v, err := space.Read(addr, size)
		if err != nil {
			return 0
		}
		return v
	}
	writeThroughSpace := func(addr uint32, size int, value uint32) {
		_ = space.Write(addr, size, value)
	}
	if err := engine.AddMemHook(mmioBase, mmioBase+mmioSize, routeThroughSpace, writeThroughSpace); err != nil {
		return nil, err
	}
	// RAM is hooked the same way as MMIO so the address space's RAM
	// buffer stays the single source of truth: every load/store the
	// engine executes against SRAM is serviced by, and mirrored back
	// into, the address space rather than a second, divergent copy
	// living only inside the engine.
	if err := engine.AddMemHook(ramBase, ramBase+ramSize, routeThroughSpace, writeThroughSpace); err != nil {
		return nil, err
	}
	err := engine.AddWatchHook(func(addr uint32, size int, isWrite bool) {
		if c.accessObserver != nil {
			c.accessObserver(addr, size, isWrite)
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetAccessObserver installs a callback invoked on every memory access
// the engine performs, used by the debug session to detect watchpoint
// hits. Only one observer is supported at a time.
func (c *CortexM) SetAccessObserver(fn func(addr uint32, size int, isWrite bool)) {
	c.accessObserver = fn
}

// Reset implements the five-step boot sequence in §4.5: clear the
// general registers, read MSP/reset-vector from the vector table,
// mirror flash into the engine, validate the boot configuration, and
// set MSP/SP/PC.
func (c *CortexM) Reset() error {
	for i := 0; i < 13; i++ {
		if err := c.engine.SetReg(i, 0); err != nil {
			return err
		}
	}
	if err := c.engine.SetReg(RegXPSR, xpsrThumbBit); err != nil {
		return err
	}

	vectorTable, err := c.space.ReadBlock(c.flashBase, 8)
	if err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "failed to read vector table")
	}
	msp := binary.LittleEndian.Uint32(vectorTable[0:4])
	resetVector := binary.LittleEndian.Uint32(vectorTable[4:8])

	flashImage, err := c.space.ReadBlock(c.flashBase, c.flashSize)
	if err != nil {
		return simerr.Wrap(simerr.KindRuntime, err, "failed to read flash image for engine mirror")
	}
	if err := c.engine.WriteBytes(c.flashBase, flashImage); err != nil {
		return err
	}

	if msp < c.ramBase || msp > c.ramBase+c.ramSize {
		return simerr.New(simerr.KindRuntime, "invalid boot configuration: MSP 0x%08X lies outside RAM %s", msp, rangeStr(c.ramBase, c.ramSize))
	}
	if resetVector&thumbBit == 0 {
		return simerr.New(simerr.KindRuntime, "invalid boot configuration: reset vector 0x%08X is missing the Thumb bit", resetVector)
	}

	if err := c.engine.SetReg(RegMSP, msp); err != nil {
		return err
	}
	if err := c.engine.SetReg(RegSP, msp); err != nil {
		return err
	}
	if err := c.engine.SetReg(RegPC, resetVector); err != nil {
		return err
	}
	return nil
}

func rangeStr(base, size uint32) string {
	return "[0x" + hex(base) + ", 0x" + hex(base+size) + ")"
}

func hex(v uint32) string {
	const digits = "0123456789ABCDEF"
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = digits[v&0xF]
		v >>= 4
	}
	return string(buf)
}

// Step reads PC from the engine and issues exactly one instruction.
// Engine faults propagate as a runtime error carrying the faulting PC.
func (c *CortexM) Step() error {
	pc, err := c.engine.GetReg(RegPC)
	if err != nil {
		return err
	}
	return c.engine.Step(pc | thumbBit)
}

// GetRegister/SetRegister access any of the named registers by index
// (0-12: R0-R12; 13: SP; 14: LR; 15: PC; 16: XPSR; 17: MSP).
func (c *CortexM) GetRegister(index int) (uint32, error) {
	if index < 0 || index >= NumRegisters {
		return 0, simerr.New(simerr.KindProgramming, "invalid register index %d", index)
	}
	return c.engine.GetReg(index)
}

func (c *CortexM) SetRegister(index int, value uint32) error {
	if index < 0 || index >= NumRegisters {
		return simerr.New(simerr.KindProgramming, "invalid register index %d", index)
	}
	return c.engine.SetReg(index, value)
}

// Snapshot reads all 18 named registers and decodes N/Z/C/V/Q/T from
// XPSR for debug/observer use.
func (c *CortexM) Snapshot() (Snapshot, error) {
	var snap Snapshot
	for i := 0; i < 13; i++ {
		v, err := c.engine.GetReg(i)
		if err != nil {
			return snap, err
		}
		snap.Registers[i] = v
	}
	var err error
	if snap.SP, err = c.engine.GetReg(RegSP); err != nil {
		return snap, err
	}
	if snap.LR, err = c.engine.GetReg(RegLR); err != nil {
		return snap, err
	}
	if snap.PC, err = c.engine.GetReg(RegPC); err != nil {
		return snap, err
	}
	if snap.XPSR, err = c.engine.GetReg(RegXPSR); err != nil {
		return snap, err
	}
	if snap.MSP, err = c.engine.GetReg(RegMSP); err != nil {
		return snap, err
	}
	snap.N = snap.XPSR&(1<<31) != 0
	snap.Z = snap.XPSR&(1<<30) != 0
	snap.C = snap.XPSR&(1<<29) != 0
	snap.V = snap.XPSR&(1<<28) != 0
	snap.Q = snap.XPSR&(1<<27) != 0
	snap.T = snap.XPSR&xpsrThumbBit != 0
	return snap, nil
}

// HandleInterrupt is the default CPU interrupt sink: it simply records
// that an interrupt was requested. Full vector dispatch is a future
// extension, per §4.6.
func (c *CortexM) HandleInterrupt(source string, vector int) {
	// Intentionally minimal: pending-queue bookkeeping lives in the
	// interrupt controller (package clockbus); the CPU side of vector
	// dispatch is out of scope per §4.6.
}

// MirrorToEngine pushes data directly into the engine's own memory at
// addr, bypassing the MMIO/RAM hooks. It exists for the one case where
// the address space's copy changes without the engine ever issuing the
// access itself: a debugger reprogramming flash mid-session (§4.8
// write_mem). RAM and MMIO never need this since every engine access
// to those ranges already round-trips through the address space.
func (c *CortexM) MirrorToEngine(addr uint32, data []byte) error {
	return c.engine.WriteBytes(addr, data)
}

func (c *CortexM) Close() error {
	return c.engine.Close()
}
