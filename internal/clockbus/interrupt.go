package clockbus

import "sync"

// InterruptEvent records one interrupt notification: the peripheral
// source name, an optional vector, and the clock cycle count at the
// moment of notification (zero if no clock is attached).
type InterruptEvent struct {
	Source    string
	Vector    int
	Timestamp uint64
}

// InterruptSink is the single consumer of interrupt notifications,
// implemented by CortexM.
type InterruptSink interface {
	HandleInterrupt(source string, vector int)
}

// InterruptController fans notifications from any number of
// peripheral sources in to a single CPU sink, stamping each with the
// current cycle count when a clock is attached.
type InterruptController struct {
	mu      sync.Mutex
	clock   *Clock
	sink    InterruptSink
	pending []InterruptEvent
}

func NewInterruptController() *InterruptController {
	return &InterruptController{}
}

// AttachClock lets the controller stamp notifications with the
// current cycle count; attaching is optional.
func (ic *InterruptController) AttachClock(clock *Clock) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.clock = clock
}

// AttachCPU installs the single sink that receives every notification.
func (ic *InterruptController) AttachCPU(sink InterruptSink) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.sink = sink
}

// Notify records source's event with vector, stamping the current
// cycle count, then forwards it to the attached CPU sink.
func (ic *InterruptController) Notify(source string, vector int) {
	ic.mu.Lock()
	var ts uint64
	if ic.clock != nil {
		ts = ic.clock.CycleCount()
	}
	ic.pending = append(ic.pending, InterruptEvent{Source: source, Vector: vector, Timestamp: ts})
	sink := ic.sink
	ic.mu.Unlock()

	if sink != nil {
		sink.HandleInterrupt(source, vector)
	}
}

// Pending returns a snapshot of undelivered-to-vector events.
func (ic *InterruptController) Pending() []InterruptEvent {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	out := make([]InterruptEvent, len(ic.pending))
	copy(out, ic.pending)
	return out
}

func (ic *InterruptController) Reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.pending = nil
}
