package debugsession

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cortexsim/armboard/internal/board"
	"github.com/cortexsim/armboard/internal/cpuengine"
	"github.com/cortexsim/armboard/internal/memregion"
	"github.com/cortexsim/armboard/internal/simerr"
)

// watchHit records one memory access observed while an instruction
// executed, for matching against the configured watchpoint set.
type watchHit struct {
	addr    uint32
	size    int
	isWrite bool
}

// stepOutcome is the result of executing exactly one instruction,
// shared by Step and Run so they apply the same breakpoint/watchpoint
// checks around the engine's single-step call.
type stepOutcome struct {
	reason  StopReasonKind // "" means the instruction completed normally
	addr    uint32
	detail  string
	watchID int
}

// Debugger is the shared state machine behind the debug protocol: one
// instance wraps one board and is driven by every connected client
// under the same mutex, matching the single reentrant-in-spirit lock
// that guards all board access. Breakpoints and watchpoints are
// collectively owned state, not per-connection; halt is a flag any
// connection can raise against a run in progress, so it lives outside
// the mutex in an atomic rather than behind it.
type Debugger struct {
	board board.Board

	mu          sync.Mutex
	breakpoints map[uint32]struct{}
	watchpoints map[int]Watchpoint
	nextWatchID int
	watchHits   []watchHit

	haltRequested atomic.Bool
}

// New wraps board in a Debugger and installs the access observer the
// engine reports every memory touch through while a session is active.
func New(b board.Board) *Debugger {
	d := &Debugger{
		board:       b,
		breakpoints: make(map[uint32]struct{}),
		watchpoints: make(map[int]Watchpoint),
		// IDs start at 1: StopReason omits a zero watch_id on the wire.
		nextWatchID: 1,
	}
	b.CPU().SetAccessObserver(d.recordAccess)
	return d
}

func (d *Debugger) recordAccess(addr uint32, size int, isWrite bool) {
	d.watchHits = append(d.watchHits, watchHit{addr: addr, size: size, isWrite: isWrite})
}

// Hello returns the handshake payload for the protocol's hello command.
func (d *Debugger) Hello() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return map[string]any{
		"board":   d.board.Name(),
		"version": 1,
	}
}

func (d *Debugger) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board.Reset()
}

func (d *Debugger) Halt() {
	d.haltRequested.Store(true)
}

func (d *Debugger) SetBreakpoint(addr uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints[addr] = struct{}{}
}

func (d *Debugger) ClearBreakpoint(addr uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, existed := d.breakpoints[addr]
	delete(d.breakpoints, addr)
	return existed
}

func (d *Debugger) SetWatchpoint(addr, size uint32, access WatchAccess) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextWatchID
	d.nextWatchID++
	d.watchpoints[id] = Watchpoint{ID: id, Address: addr, Size: size, Access: access}
	return id
}

func (d *Debugger) ClearWatchpoint(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, existed := d.watchpoints[id]
	delete(d.watchpoints, id)
	return existed
}

// ReadMem reads size bytes starting at addr. Reads that fall entirely
// within flash or RAM are served as one contiguous block; anything
// else (the MMIO window, or a range straddling a boundary) is read
// one byte at a time so every byte observes side effects the
// same way a real debugger probe would.
func (d *Debugger) ReadMem(addr, size uint32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	space := d.board.AddressSpace()
	full := memregion.Range{Base: addr, Size: size}
	if space.Flash().Range().ContainsRange(full) || space.RAM().Range().ContainsRange(full) {
		return space.ReadBlock(addr, size)
	}
	out := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		v, err := space.Read(addr+i, 1)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// WriteMem writes data starting at addr. A write landing entirely in
// flash reprograms the image directly (bypassing the read-only check
// that applies to the running program) and mirrors the same bytes
// into the execution engine, since flash is otherwise only mirrored
// once, at reset. Everything else goes through the address space one
// byte at a time, which is how RAM writes reach the engine's own
// mirrored copy via its memory hook.
func (d *Debugger) WriteMem(addr uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	space := d.board.AddressSpace()
	full := memregion.Range{Base: addr, Size: uint32(len(data))}
	if space.Flash().Range().ContainsRange(full) {
		if err := space.ProgramFlash(addr, data); err != nil {
			return err
		}
		return d.board.CPU().MirrorToEngine(addr, data)
	}
	for i, b := range data {
		if err := space.Write(addr+uint32(i), 1, uint32(b)); err != nil {
			return err
		}
	}
	return nil
}

// ReadRegister/WriteRegister expose the 16 core registers (R0-R12, SP,
// LR, PC) the protocol names by index; XPSR/MSP are reachable only
// through a Snapshot for observer tooling, not the debug wire format.
func (d *Debugger) ReadRegister(index int) (uint32, error) {
	if index < 0 || index > 15 {
		return 0, simerr.New(simerr.KindProtocol, "register index %d out of range 0-15", index)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board.CPU().GetRegister(index)
}

func (d *Debugger) WriteRegister(index int, value uint32) error {
	if index < 0 || index > 15 {
		return simerr.New(simerr.KindProtocol, "register index %d out of range 0-15", index)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board.CPU().SetRegister(index, value)
}

// Step executes exactly one instruction, checking the entry PC against
// the breakpoint set before executing so a breakpoint at the current
// PC is reported without ever running.
func (d *Debugger) Step() StopReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	o := d.executeOneLocked()
	if o.reason == "" {
		return StopReason{Reason: StopStep, Address: o.addr}
	}
	return StopReason{Reason: o.reason, Address: o.addr, Detail: o.detail, WatchID: o.watchID}
}

// Run executes instructions until halted, a breakpoint or watchpoint
// fires, the engine faults, or maxSteps instructions have run.
// maxSteps == 0 is an immediate limit: run returns without executing
// anything, matching the convention that zero means "run nothing."
// Each iteration applies, in order: a halt check, a pre-execution
// breakpoint check, the step itself (an engine error becomes a
// fault), a watch-hit check, a post-execution breakpoint check, and
// finally the step-count/limit check.
func (d *Debugger) Run(maxSteps uint64) StopReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	if maxSteps == 0 {
		pc, _ := d.board.CPU().GetRegister(cpuengine.RegPC)
		return StopReason{Reason: StopLimit, Address: pc}
	}
	var count uint64
	for {
		if d.haltRequested.Load() {
			d.haltRequested.Store(false)
			pc, _ := d.board.CPU().GetRegister(cpuengine.RegPC)
			return StopReason{Reason: StopHalt, Address: pc}
		}
		o := d.executeOneLocked()
		if o.reason != "" {
			return StopReason{Reason: o.reason, Address: o.addr, Detail: o.detail, WatchID: o.watchID}
		}
		count++
		if count >= maxSteps {
			return StopReason{Reason: StopLimit, Address: o.addr}
		}
	}
}

func (d *Debugger) executeOneLocked() stepOutcome {
	cpu := d.board.CPU()
	pc, err := cpu.GetRegister(cpuengine.RegPC)
	if err != nil {
		return stepOutcome{reason: StopFault, addr: pc, detail: err.Error()}
	}
	if _, ok := d.breakpoints[pc]; ok {
		return stepOutcome{reason: StopBreakpoint, addr: pc}
	}

	d.watchHits = d.watchHits[:0]
	if err := d.board.Step(1); err != nil {
		return stepOutcome{reason: StopFault, addr: pc, detail: err.Error()}
	}

	if id, detail, ok := d.firstWatchHitLocked(); ok {
		newPC, _ := cpu.GetRegister(cpuengine.RegPC)
		return stepOutcome{reason: StopWatchpoint, addr: newPC, watchID: id, detail: detail}
	}

	newPC, err := cpu.GetRegister(cpuengine.RegPC)
	if err != nil {
		return stepOutcome{reason: StopFault, addr: newPC, detail: err.Error()}
	}
	if _, ok := d.breakpoints[newPC]; ok {
		return stepOutcome{reason: StopBreakpoint, addr: newPC}
	}
	return stepOutcome{addr: newPC}
}

// firstWatchHitLocked reports the first recorded access (in the order
// the engine made them) that matches a configured watchpoint, checking
// watchpoints in ascending ID order for a deterministic result when
// more than one covers the same access.
func (d *Debugger) firstWatchHitLocked() (id int, detail string, ok bool) {
	if len(d.watchHits) == 0 || len(d.watchpoints) == 0 {
		return 0, "", false
	}
	ids := make([]int, 0, len(d.watchpoints))
	for id := range d.watchpoints {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, hit := range d.watchHits {
		for _, id := range ids {
			wp := d.watchpoints[id]
			if wp.matches(hit.addr, hit.size, hit.isWrite) {
				return id, fmt.Sprintf("%s access to 0x%08X (size %d) hit watchpoint at 0x%08X", accessVerb(hit.isWrite), hit.addr, hit.size, wp.Address), true
			}
		}
	}
	return 0, "", false
}

func accessVerb(isWrite bool) string {
	if isWrite {
		return "write"
	}
	return "read"
}
