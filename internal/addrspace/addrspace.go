// Package addrspace implements the single arbiter that maps any
// 32-bit address to a memory region or a registered peripheral,
// enforcing alignment and access-size rules and performing bit-band
// read-modify-write. It is the Go analogue of the teacher's
// SystemBus/IORegion page-masked dispatch, generalized from a flat
// 32-bit word bus to typed flash/RAM/MMIO/bit-band regions.
package addrspace

import (
	"sort"
	"sync"

	"github.com/cortexsim/armboard/internal/memregion"
	"github.com/cortexsim/armboard/internal/peripheral"
	"github.com/cortexsim/armboard/internal/simerr"
)

// mapping is a (base, size, peripheral) record kept sorted by base so
// lookups are logarithmic; mappings are disjoint by construction.
type mapping struct {
	base uint32
	size uint32
	p    peripheral.Peripheral
}

func (m mapping) contains(addr uint32) bool {
	return addr >= m.base && addr < m.base+m.size
}

// AddressSpace aggregates one flash region, one RAM region, one MMIO
// window, a set of bit-band alias regions, and an ordered set of
// peripheral mappings within the MMIO window.
type AddressSpace struct {
	mu sync.RWMutex

	flash   *memregion.Flash
	ram     *memregion.RAM
	mmio    *memregion.MMIOWindow
	bitband []*memregion.BitBandAlias

	mappings []mapping
}

func New(flash *memregion.Flash, ram *memregion.RAM, mmio *memregion.MMIOWindow) *AddressSpace {
	return &AddressSpace{flash: flash, ram: ram, mmio: mmio}
}

func (a *AddressSpace) Flash() *memregion.Flash { return a.flash }
func (a *AddressSpace) RAM() *memregion.RAM     { return a.ram }

// AddBitBandAlias registers a bit-band alias region. The translated
// target word is routed by its address: through RAM if RAM contains it,
// otherwise through the peripheral dispatch path; the alias's
// target-is-peripheral flag is not consulted.
func (a *AddressSpace) AddBitBandAlias(alias *memregion.BitBandAlias) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bitband = append(a.bitband, alias)
}

// RegisterPeripheral installs p at [base, base+size) within the MMIO
// window. Rejects zero size, ranges outside the window, and overlap
// with any existing mapping.
func (a *AddressSpace) RegisterPeripheral(base, size uint32, p peripheral.Peripheral) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		return simerr.New(simerr.KindProgramming, "peripheral %s registered with zero size", p.Name())
	}
	rng := memregion.Range{Base: base, Size: size}
	if !a.mmio.Range().ContainsRange(rng) {
		return simerr.New(simerr.KindProgramming, "peripheral %s range %s lies outside the MMIO window %s", p.Name(), rng, a.mmio.Range())
	}
	idx := sort.Search(len(a.mappings), func(i int) bool { return a.mappings[i].base >= base })
	if idx > 0 {
		prev := a.mappings[idx-1]
		prevRng := memregion.Range{Base: prev.base, Size: prev.size}
		if prevRng.Overlaps(rng) {
			return simerr.New(simerr.KindProgramming, "peripheral %s overlaps existing mapping for %s", p.Name(), prev.p.Name())
		}
	}
	if idx < len(a.mappings) {
		next := a.mappings[idx]
		nextRng := memregion.Range{Base: next.base, Size: next.size}
		if nextRng.Overlaps(rng) {
			return simerr.New(simerr.KindProgramming, "peripheral %s overlaps existing mapping for %s", p.Name(), next.p.Name())
		}
	}
	m := mapping{base: base, size: size, p: p}
	a.mappings = append(a.mappings, mapping{})
	copy(a.mappings[idx+1:], a.mappings[idx:])
	a.mappings[idx] = m
	return nil
}

func (a *AddressSpace) findMapping(addr uint32) *mapping {
	idx := sort.Search(len(a.mappings), func(i int) bool { return a.mappings[i].base > addr })
	if idx == 0 {
		return nil
	}
	m := &a.mappings[idx-1]
	if m.contains(addr) {
		return m
	}
	return nil
}

func validateAccess(addr uint32, size int) error {
	if size != 1 && size != 2 && size != 4 {
		return simerr.NewAt(simerr.KindMemoryAccess, addr, "invalid access size %d", size)
	}
	if size > 1 && addr%uint32(size) != 0 {
		return simerr.NewAt(simerr.KindMemoryAlignment, addr, "unaligned %d-byte access", size)
	}
	return nil
}

// Read dispatches a read following the precedence in §4.4: bit-band,
// then flash, then RAM, then MMIO peripherals.
func (a *AddressSpace) Read(addr uint32, size int) (uint32, error) {
	if err := validateAccess(addr, size); err != nil {
		return 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, bb := range a.bitband {
		if bb.Range().Contains(addr) {
			return a.bitBandRead(bb, addr, size)
		}
	}
	if a.flash.Range().Contains(addr) {
		return a.flash.Read(addr, size)
	}
	if a.ram.Range().Contains(addr) {
		return a.ram.Read(addr, size)
	}
	if a.mmio.Range().Contains(addr) {
		m := a.findMapping(addr)
		if m == nil {
			return 0, simerr.NewAt(simerr.KindMemoryAccess, addr, "no peripheral registered at this MMIO address")
		}
		return m.p.Read(addr-m.base, size)
	}
	return 0, simerr.NewAt(simerr.KindMemoryAccess, addr, "address not mapped")
}

// Write dispatches a write using the same precedence as Read.
func (a *AddressSpace) Write(addr uint32, size int, value uint32) error {
	if err := validateAccess(addr, size); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, bb := range a.bitband {
		if bb.Range().Contains(addr) {
			return a.bitBandWrite(bb, addr, size, value)
		}
	}
	if a.flash.Range().Contains(addr) {
		return a.flash.Write(addr, size, value)
	}
	if a.ram.Range().Contains(addr) {
		return a.ram.Write(addr, size, value)
	}
	if a.mmio.Range().Contains(addr) {
		m := a.findMapping(addr)
		if m == nil {
			return simerr.NewAt(simerr.KindMemoryAccess, addr, "no peripheral registered at this MMIO address")
		}
		return m.p.Write(addr-m.base, size, value)
	}
	return simerr.NewAt(simerr.KindMemoryAccess, addr, "address not mapped")
}

func (a *AddressSpace) bitBandRead(bb *memregion.BitBandAlias, addr uint32, size int) (uint32, error) {
	if size != 4 {
		return 0, simerr.NewAt(simerr.KindMemoryAccess, addr, "bit-band accesses must be 32-bit")
	}
	target, bit, err := bb.Translate(addr)
	if err != nil {
		return 0, err
	}
	word, err := a.readWordLocked(target)
	if err != nil {
		return 0, err
	}
	return (word >> bit) & 1, nil
}

func (a *AddressSpace) bitBandWrite(bb *memregion.BitBandAlias, addr uint32, size int, value uint32) error {
	if size != 4 {
		return simerr.NewAt(simerr.KindMemoryAccess, addr, "bit-band accesses must be 32-bit")
	}
	target, bit, err := bb.Translate(addr)
	if err != nil {
		return err
	}
	word, err := a.readWordLocked(target)
	if err != nil {
		return err
	}
	mask := uint32(1) << bit
	if value&1 != 0 {
		word |= mask
	} else {
		word &^= mask
	}
	return a.writeWordLocked(target, word)
}

// readWordLocked/writeWordLocked access the bit-band target region
// directly (RAM or a peripheral mapping), reusing the already-held
// read lock rather than recursing into Read/Write (which would
// deadlock on the non-reentrant RWMutex).
func (a *AddressSpace) readWordLocked(addr uint32) (uint32, error) {
	if a.ram.Range().Contains(addr) {
		return a.ram.Read(addr, 4)
	}
	if m := a.findMapping(addr); m != nil {
		return m.p.Read(addr-m.base, 4)
	}
	return 0, simerr.NewAt(simerr.KindMemoryAccess, addr, "bit-band target address not mapped")
}

func (a *AddressSpace) writeWordLocked(addr, value uint32) error {
	if a.ram.Range().Contains(addr) {
		return a.ram.Write(addr, 4, value)
	}
	if m := a.findMapping(addr); m != nil {
		return m.p.Write(addr-m.base, 4, value)
	}
	return simerr.NewAt(simerr.KindMemoryAccess, addr, "bit-band target address not mapped")
}

// ReadBlock serves only flash and RAM; used by the CPU to seed the
// execution engine after firmware load.
func (a *AddressSpace) ReadBlock(addr, size uint32) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.flash.Range().Contains(addr) {
		return a.flash.ReadBlock(addr, size)
	}
	if a.ram.Range().Contains(addr) {
		return a.ram.ReadBlock(addr, size)
	}
	return nil, simerr.NewAt(simerr.KindMemoryAccess, addr, "read_block only supports flash and RAM")
}

// ProgramFlash writes data into flash starting at addr, bypassing the
// normal read-only permission check. It does not touch the execution
// engine's mirrored copy; callers that need the change visible to a
// running CPU must also mirror it there (see cpuengine.CortexM.MirrorToEngine).
func (a *AddressSpace) ProgramFlash(addr uint32, data []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.flash.Range().Contains(addr) {
		return simerr.NewAt(simerr.KindMemoryAccess, addr, "address is not within flash")
	}
	return a.flash.ProgramAt(addr, data)
}

// Reset resets RAM, every registered peripheral, and leaves flash
// untouched, per §4.4.
func (a *AddressSpace) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ram.Reset()
	for _, m := range a.mappings {
		m.p.Reset()
	}
}

// Peripheral returns the peripheral registered at the given MMIO
// base address, for board accessor methods and introspection tools.
func (a *AddressSpace) Peripheral(base uint32) (peripheral.Peripheral, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, m := range a.mappings {
		if m.base == base {
			return m.p, true
		}
	}
	return nil, false
}
