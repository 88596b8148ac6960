package elfmem

import (
	"fmt"
	"sort"
)

type region struct {
	start uint64
	data  []byte
}

func (r region) end() uint64 { return r.start + uint64(len(r.data)) }

// Sparse is an in-memory address space made of disjoint mapped ranges. It
// stands in for a process image in tests and snapshots.
type Sparse struct {
	regions []region
}

// Map places data at addr. Overlapping an existing range panics.
func (s *Sparse) Map(addr uint64, data []byte) {
	r := region{start: addr, data: data}
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].start >= addr })
	if i > 0 && s.regions[i-1].end() > addr {
		panic(fmt.Sprintf("elfmem: range at 0x%x overlaps 0x%x", addr, s.regions[i-1].start))
	}
	if i < len(s.regions) && r.end() > s.regions[i].start {
		panic(fmt.Sprintf("elfmem: range at 0x%x overlaps 0x%x", addr, s.regions[i].start))
	}
	s.regions = append(s.regions, region{})
	copy(s.regions[i+1:], s.regions[i:])
	s.regions[i] = r
}

// Bytes returns the mapped bytes starting at addr up to the end of its range.
func (s *Sparse) Bytes(addr uint64) []byte {
	r, ok := s.find(addr)
	if !ok {
		return nil
	}
	return r.data[addr-r.start:]
}

func (s *Sparse) find(addr uint64) (region, bool) {
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].end() > addr })
	if i == len(s.regions) || s.regions[i].start > addr {
		return region{}, false
	}
	return s.regions[i], true
}

// ReadAt copies from the mapped ranges, crossing adjacent ones, and fails
// with ErrFault at the first unmapped byte.
func (s *Sparse) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative address %d", ErrFault, off)
	}
	addr := uint64(off)
	n := 0
	for n < len(p) {
		r, ok := s.find(addr)
		if !ok {
			return n, fmt.Errorf("%w: 0x%x", ErrFault, addr)
		}
		c := copy(p[n:], r.data[addr-r.start:])
		n += c
		addr += uint64(c)
	}
	return n, nil
}
