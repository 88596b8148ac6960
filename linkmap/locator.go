package linkmap

import (
	"debug/elf"
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
)

var ErrMalformedDynamicSection = elfmem.ErrMalformedDynamicSection

// A Locator finds the first struct link_map of a process.
type Locator interface {
	Head(v elfmem.View) (uint64, error)
}

// FixedAddress expects the executable's ELF header at Base. A PT_DYNAMIC
// address below Base is taken as relative to it, which covers position
// independent executables that happen to be mapped there. A non-zero
// Machine must match e_machine.
type FixedAddress struct {
	Base    uint64
	Machine elf.Machine
}

func (l FixedAddress) Head(v elfmem.View) (uint64, error) {
	ehdr, err := v.Ehdr(l.Base)
	if err != nil {
		return 0, fmt.Errorf("linkmap: executable header: %w", err)
	}
	if l.Machine != elf.EM_NONE && ehdr.Machine != l.Machine {
		return 0, fmt.Errorf("linkmap: %w: executable at 0x%x is %s, want %s",
			ErrUnsupportedPlatform, l.Base, ehdr.Machine, l.Machine)
	}
	if uint64(ehdr.Phentsize) != v.PhdrSize() {
		return 0, fmt.Errorf("linkmap: %w: e_phentsize %d at 0x%x, want %d",
			ErrMalformedDynamicSection, ehdr.Phentsize, l.Base, v.PhdrSize())
	}
	dynamic, err := findDynamicSegment(v, l.Base+ehdr.Phoff, uint64(ehdr.Phnum), func(vaddr uint64) uint64 {
		if vaddr < l.Base {
			return vaddr + l.Base
		}
		return vaddr
	})
	if err != nil {
		return 0, err
	}
	return headFromDynamic(v, dynamic)
}

// FixedDebug reads r_map from a struct r_debug at a known address, such as
// the loader's exported _r_debug.
type FixedDebug struct {
	RDebug uint64
}

func (l FixedDebug) Head(v elfmem.View) (uint64, error) {
	return headFromRDebug(v, l.RDebug)
}

// AuxvPhdr starts from the program headers the kernel reported in the
// auxiliary vector (AT_PHDR, AT_PHNUM) and derives the executable's load
// bias from PT_PHDR.
type AuxvPhdr struct {
	Phdr  uint64
	Phnum uint64
}

func (l AuxvPhdr) Head(v elfmem.View) (uint64, error) {
	if l.Phdr == 0 || l.Phnum == 0 {
		return 0, fmt.Errorf("linkmap: %w: auxiliary vector has no program headers", ErrMalformedDynamicSection)
	}
	bias := uint64(0)
	for i := uint64(0); i < l.Phnum; i++ {
		ph, err := v.Phdr(l.Phdr + i*v.PhdrSize())
		if err != nil {
			return 0, fmt.Errorf("linkmap: program header %d: %w", i, err)
		}
		if ph.Type == elf.PT_PHDR {
			bias = l.Phdr - ph.Vaddr
			break
		}
	}
	dynamic, err := findDynamicSegment(v, l.Phdr, l.Phnum, func(vaddr uint64) uint64 { return vaddr + bias })
	if err != nil {
		return 0, err
	}
	return headFromDynamic(v, dynamic)
}

// findDynamicSegment scans phnum program headers for PT_DYNAMIC and maps its
// p_vaddr to a process address with reloc.
func findDynamicSegment(v elfmem.View, phdr, phnum uint64, reloc func(uint64) uint64) (uint64, error) {
	for i := uint64(0); i < phnum; i++ {
		ph, err := v.Phdr(phdr + i*v.PhdrSize())
		if err != nil {
			return 0, fmt.Errorf("linkmap: program header %d: %w", i, err)
		}
		if ph.Type == elf.PT_DYNAMIC {
			return reloc(ph.Vaddr), nil
		}
	}
	return 0, fmt.Errorf("linkmap: %w: no PT_DYNAMIC among %d program headers at 0x%x",
		ErrMalformedDynamicSection, phnum, phdr)
}

func headFromDynamic(v elfmem.View, dynamic uint64) (uint64, error) {
	debug, err := v.FindDynamic(dynamic, elf.DT_DEBUG)
	if err != nil {
		return 0, fmt.Errorf("linkmap: executable DT_DEBUG: %w", err)
	}
	if debug.Val == 0 {
		return 0, fmt.Errorf("linkmap: %w: DT_DEBUG at 0x%x was not filled in by the loader",
			ErrMalformedDynamicSection, debug.Addr)
	}
	return headFromRDebug(v, debug.Val)
}

func headFromRDebug(v elfmem.View, rdebug uint64) (uint64, error) {
	head, err := v.RDebugMap(rdebug)
	if err != nil {
		return 0, fmt.Errorf("linkmap: r_debug at 0x%x: %w", rdebug, err)
	}
	if head == 0 {
		return 0, fmt.Errorf("linkmap: %w: r_debug at 0x%x has an empty r_map", ErrMalformedDynamicSection, rdebug)
	}
	return head, nil
}
