package symscan

import (
	"debug/elf"
	"errors"
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/linkmap"
)

// Table is the half-open range [Symtab, End) of ElfN_Sym rows of one object
// and the string table their names index into. Versym, when not zero, is the
// DT_VERSYM array running parallel to the rows.
type Table struct {
	Symtab uint64
	Strtab uint64
	End    uint64
	Versym uint64
}

// Len is the number of rows in the table.
func (t Table) Len(v elfmem.View) uint64 {
	return (t.End - t.Symtab) / v.SymSize()
}

func (t Table) check(v elfmem.View) (Table, error) {
	if t.End <= t.Symtab {
		return Table{}, fmt.Errorf("symscan: %w: symbol table 0x%x ends at 0x%x",
			elfmem.ErrMalformedDynamicSection, t.Symtab, t.End)
	}
	if n := t.Len(v); n > MaxSymbols {
		return Table{}, fmt.Errorf("symscan: %w: symbol table 0x%x has %d entries, limit %d",
			elfmem.ErrMalformedDynamicSection, t.Symtab, n, MaxSymbols)
	}
	return t, nil
}

// Bounds decides where an object's symbol table starts and stops.
type Bounds interface {
	Locate(v elfmem.View, p linkmap.Platform, obj linkmap.Object) (Table, error)
}

// Adjacent trusts the usual linker output: the dynamic entry right after
// DT_STRTAB is DT_SYMTAB, and the string table directly follows the symbol
// table. Neither is checked. DT_VERSYM is still looked up so hidden versions
// are skipped the same way Safe skips them.
type Adjacent struct{}

func (Adjacent) Locate(v elfmem.View, p linkmap.Platform, obj linkmap.Object) (Table, error) {
	strtab, err := v.FindDynamic(obj.Dynamic, elf.DT_STRTAB)
	if err != nil {
		return Table{}, fmt.Errorf("symscan: %w", err)
	}
	symtab, err := v.NextDyn(strtab)
	if err != nil {
		return Table{}, fmt.Errorf("symscan: %w", err)
	}
	str := elfmem.Relocate(strtab.Val, obj.Bias, p.AbsoluteDynamic)
	t := Table{
		Symtab: elfmem.Relocate(symtab.Val, obj.Bias, p.AbsoluteDynamic),
		Strtab: str,
		End:    str,
	}
	versym, err := v.FindDynamic(obj.Dynamic, elf.DT_VERSYM)
	switch {
	case err == nil:
		if versym.Val != 0 {
			t.Versym = elfmem.Relocate(versym.Val, obj.Bias, p.AbsoluteDynamic)
		}
	case !errors.Is(err, elfmem.ErrTagNotFound):
		return Table{}, fmt.Errorf("symscan: %w", err)
	}
	return t.check(v)
}

// tableTags are the pointer-valued entries whose tables the static linker
// places alongside .dynsym.
var tableTags = map[elf.DynTag]bool{
	elf.DT_STRTAB:   true,
	elf.DT_HASH:     true,
	elf.DT_GNU_HASH: true,
	elf.DT_RELA:     true,
	elf.DT_REL:      true,
	elf.DT_JMPREL:   true,
	elf.DT_VERSYM:   true,
	elf.DT_VERDEF:   true,
	elf.DT_VERNEED:  true,
}

// Safe looks every table up by tag and ends the symbol table at the nearest
// table placed after it, or at the DT_HASH chain count when there is one.
type Safe struct{}

func (Safe) Locate(v elfmem.View, p linkmap.Platform, obj linkmap.Object) (Table, error) {
	entries, err := v.DynamicEntries(obj.Dynamic)
	if err != nil {
		return Table{}, fmt.Errorf("symscan: %w", err)
	}

	ptrs := make(map[elf.DynTag]uint64)
	for _, d := range entries {
		if d.Tag == elf.DT_SYMTAB || tableTags[d.Tag] {
			if _, dup := ptrs[d.Tag]; !dup && d.Val != 0 {
				ptrs[d.Tag] = elfmem.Relocate(d.Val, obj.Bias, p.AbsoluteDynamic)
			}
		}
	}
	symtab, ok := ptrs[elf.DT_SYMTAB]
	if !ok {
		return Table{}, fmt.Errorf("symscan: %w: no DT_SYMTAB in dynamic array at 0x%x",
			elfmem.ErrMalformedDynamicSection, obj.Dynamic)
	}
	strtab, ok := ptrs[elf.DT_STRTAB]
	if !ok {
		return Table{}, fmt.Errorf("symscan: %w: no DT_STRTAB in dynamic array at 0x%x",
			elfmem.ErrMalformedDynamicSection, obj.Dynamic)
	}

	end := uint64(0)
	for tag, addr := range ptrs {
		if tag == elf.DT_SYMTAB || addr <= symtab {
			continue
		}
		if end == 0 || addr < end {
			end = addr
		}
	}
	if hash, ok := ptrs[elf.DT_HASH]; ok {
		nchain, err := v.Uint32(hash + 4)
		if err != nil {
			return Table{}, fmt.Errorf("symscan: DT_HASH nchain: %w", err)
		}
		byCount := symtab + uint64(nchain)*v.SymSize()
		if end == 0 || byCount < end {
			end = byCount
		}
	}
	if end == 0 {
		return Table{}, fmt.Errorf("symscan: %w: nothing bounds the symbol table at 0x%x",
			elfmem.ErrMalformedDynamicSection, symtab)
	}
	return Table{Symtab: symtab, Strtab: strtab, End: end, Versym: ptrs[elf.DT_VERSYM]}.check(v)
}
