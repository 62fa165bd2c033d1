// Package clockbus implements the clock pub-sub and interrupt fan-in
// controller that wire a board's CPU and peripherals together.
package clockbus

import "sync"

// Subscriber receives a batch of elapsed cycles once per Tick call.
type Subscriber interface {
	Tick(cycles uint64)
}

// Clock carries a frequency and a monotonically increasing cycle
// count, notifying subscribers once per Tick batch.
type Clock struct {
	mu          sync.Mutex
	frequencyHz uint64
	cycles      uint64
	subscribers []Subscriber
}

func New(frequencyHz uint64) *Clock {
	return &Clock{frequencyHz: frequencyHz}
}

func (c *Clock) FrequencyHz() uint64 {
	return c.frequencyHz
}

func (c *Clock) CycleCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

func (c *Clock) Subscribe(s Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, s)
}

// Tick increments the cycle count by n and notifies every subscriber
// once with the full batch. Additivity (Tick(a); Tick(b) == Tick(a+b))
// holds because each subscriber sees one call per Tick invocation with
// the whole batch size.
func (c *Clock) Tick(n uint64) {
	c.mu.Lock()
	c.cycles += n
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, s := range subs {
		s.Tick(n)
	}
}

func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles = 0
}
