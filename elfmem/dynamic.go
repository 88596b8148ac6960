package elfmem

import (
	"debug/elf"
	"fmt"
)

// MaxDynamicEntries caps how far a dynamic array is followed when looking
// for its DT_NULL terminator.
const MaxDynamicEntries = 4096

// Dyn is one ElfN_Dyn tag/value pair and the address it was read from.
type Dyn struct {
	Addr uint64
	Tag  elf.DynTag
	Val  uint64
}

// Dyn decodes the dynamic entry at addr.
func (v View) Dyn(addr uint64) (Dyn, error) {
	b, err := v.read(addr, v.DynSize())
	if err != nil {
		return Dyn{}, err
	}
	w := v.WordSize()
	tag := v.word(b)
	if v.class == elf.ELFCLASS32 {
		tag = uint64(int64(int32(uint32(tag))))
	}
	return Dyn{Addr: addr, Tag: elf.DynTag(int64(tag)), Val: v.word(b[w:])}, nil
}

// NextDyn returns the entry physically following d, whatever its tag.
func (v View) NextDyn(d Dyn) (Dyn, error) {
	return v.Dyn(d.Addr + v.DynSize())
}

// FindDynamic returns the first entry tagged tag in the dynamic array at
// dynamic. Entry 0 is stepped over without comparing its tag; it is never
// one of the tables this package asks for. Hitting DT_NULL first is an
// error.
func (v View) FindDynamic(dynamic uint64, tag elf.DynTag) (Dyn, error) {
	d, err := v.Dyn(dynamic)
	if err != nil {
		return Dyn{}, err
	}
	if d.Tag == elf.DT_NULL {
		return Dyn{}, fmt.Errorf("%w: empty dynamic array at 0x%x", ErrMalformedDynamicSection, dynamic)
	}
	for i := 1; i < MaxDynamicEntries; i++ {
		d, err = v.NextDyn(d)
		if err != nil {
			return Dyn{}, err
		}
		switch d.Tag {
		case tag:
			return d, nil
		case elf.DT_NULL:
			return Dyn{}, fmt.Errorf("%w: %w: %s in dynamic array at 0x%x",
				ErrMalformedDynamicSection, ErrTagNotFound, tag, dynamic)
		}
	}
	return Dyn{}, fmt.Errorf("%w: dynamic array at 0x%x has no DT_NULL within %d entries",
		ErrMalformedDynamicSection, dynamic, MaxDynamicEntries)
}

// DynamicEntries returns every entry before DT_NULL.
func (v View) DynamicEntries(dynamic uint64) ([]Dyn, error) {
	var out []Dyn
	addr := dynamic
	for i := 0; i < MaxDynamicEntries; i++ {
		d, err := v.Dyn(addr)
		if err != nil {
			return nil, err
		}
		if d.Tag == elf.DT_NULL {
			return out, nil
		}
		out = append(out, d)
		addr += v.DynSize()
	}
	return nil, fmt.Errorf("%w: dynamic array at 0x%x has no DT_NULL within %d entries",
		ErrMalformedDynamicSection, dynamic, MaxDynamicEntries)
}

// Relocate turns a pointer-valued dynamic entry into a process address.
// Linux's loader rewrites most d_ptr values in place, so when absolute is
// set a value at or above the load bias is already final.
func Relocate(ptr, bias uint64, absolute bool) uint64 {
	if absolute && ptr >= bias {
		return ptr
	}
	return ptr + bias
}

// LinkMapLayout gives the word index of each struct link_map field used.
type LinkMapLayout struct {
	Addr    int
	Name    int
	Dynamic int
	Next    int
}

// LinkMap is one loaded object as the loader describes it.
type LinkMap struct {
	Addr    uint64
	Bias    uint64
	Name    uint64
	Dynamic uint64
	Next    uint64
}

// LinkMap decodes the struct link_map at addr.
func (v View) LinkMap(addr uint64, layout LinkMapLayout) (LinkMap, error) {
	words := 1 + max(layout.Addr, layout.Name, layout.Dynamic, layout.Next)
	w := v.WordSize()
	b, err := v.read(addr, uint64(words)*w)
	if err != nil {
		return LinkMap{}, err
	}
	field := func(i int) uint64 { return v.word(b[uint64(i)*w:]) }
	return LinkMap{
		Addr:    addr,
		Bias:    field(layout.Addr),
		Name:    field(layout.Name),
		Dynamic: field(layout.Dynamic),
		Next:    field(layout.Next),
	}, nil
}

// RDebugMap reads r_map from the struct r_debug at addr. r_version is an int
// padded to pointer alignment, so r_map sits one word in.
func (v View) RDebugMap(addr uint64) (uint64, error) {
	return v.Word(addr + v.WordSize())
}
