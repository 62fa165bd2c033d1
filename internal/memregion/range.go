// Package memregion implements the typed memory containers that back
// an address space: flash, RAM, the declarative MMIO window, and the
// bit-band alias translation. See AddressSpace in package addrspace
// for how these are composed and dispatched to.
package memregion

import "fmt"

// Range is an immutable (base, size) address range.
type Range struct {
	Base uint32
	Size uint32
}

// End returns the exclusive upper bound of the range.
func (r Range) End() uint32 { return r.Base + r.Size }

// Contains reports whether addr falls within [Base, End).
func (r Range) Contains(addr uint32) bool {
	return addr >= r.Base && addr < r.End()
}

// ContainsRange reports whether other is entirely contained within r.
func (r Range) ContainsRange(other Range) bool {
	return other.Base >= r.Base && other.End() <= r.End()
}

// Overlaps reports whether r and other share any address.
func (r Range) Overlaps(other Range) bool {
	return r.Base < other.End() && other.Base < r.End()
}

func (r Range) String() string {
	return fmt.Sprintf("[0x%08X, 0x%08X)", r.Base, r.End())
}
