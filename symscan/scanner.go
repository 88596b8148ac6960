// Package symscan looks symbols up by name hash in the dynamic symbol
// tables of loaded objects.
package symscan

import (
	"debug/elf"
	"errors"
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/linkmap"
	"github.com/sliverarmory/dnload/sdbm"
)

// ErrSymbolNotFound means no defined symbol with the wanted hash exists.
var ErrSymbolNotFound = errors.New("symbol not found")

// MaxSymbols bounds a single symbol table scan.
const MaxSymbols = 1 << 20

// chunk is how many rows are decoded per read.
const chunk = 256

// IfuncCaller runs a STT_GNU_IFUNC resolver and returns the address it picks.
type IfuncCaller interface {
	CallIfunc(resolver uint64) (uint64, error)
}

// IfuncFunc adapts a function to IfuncCaller.
type IfuncFunc func(resolver uint64) (uint64, error)

func (f IfuncFunc) CallIfunc(resolver uint64) (uint64, error) { return f(resolver) }

// Scanner searches one object at a time.
type Scanner struct {
	View     elfmem.View
	Platform linkmap.Platform
	Bounds   Bounds
	// Ifunc may be nil when resolvers cannot run here, for example when
	// reading another process.
	Ifunc IfuncCaller
}

func (s Scanner) bounds() Bounds {
	if s.Bounds == nil {
		return Safe{}
	}
	return s.Bounds
}

// Symbol is one defined dynamic symbol.
type Symbol struct {
	Name  string
	Hash  uint32
	Value uint64
	Type  elf.SymType
}

// each calls fn for every defined row of obj's symbol table until fn
// returns false or an error. Rows whose version is hidden are skipped: the
// loader only hands those out to lookups naming that version.
func (s Scanner) each(obj linkmap.Object, fn func(t Table, sym elfmem.Sym) (bool, error)) error {
	t, err := s.bounds().Locate(s.View, s.Platform, obj)
	if err != nil {
		return err
	}
	n := t.Len(s.View)
	for i := uint64(0); i < n; i += chunk {
		rows, err := s.View.Syms(t.Symtab+i*s.View.SymSize(), min(chunk, n-i))
		if err != nil {
			return fmt.Errorf("symscan: symbol %d of table 0x%x: %w", i, t.Symtab, err)
		}
		var versyms []uint16
		if t.Versym != 0 {
			versyms, err = s.View.Versyms(t.Versym+2*i, uint64(len(rows)))
			if err != nil {
				return fmt.Errorf("symscan: version %d of table 0x%x: %w", i, t.Versym, err)
			}
		}
		for j, sym := range rows {
			if sym.IsUndef() {
				continue
			}
			if versyms != nil && versyms[j]&elfmem.VersymHidden != 0 {
				continue
			}
			more, err := fn(t, sym)
			if err != nil || !more {
				return err
			}
		}
	}
	return nil
}

// Find returns the process address of the symbol of obj whose name hashes
// to hash. Undefined entries are imports and never match. IFUNC symbols
// are resolved through s.Ifunc when the platform honours them.
func (s Scanner) Find(obj linkmap.Object, hash uint32) (uint64, error) {
	var (
		found elfmem.Sym
		ok    bool
	)
	err := s.each(obj, func(t Table, sym elfmem.Sym) (bool, error) {
		h, err := s.View.HashCString(t.Strtab + uint64(sym.Name))
		if err != nil {
			return false, fmt.Errorf("symscan: name of symbol at 0x%x: %w", sym.Addr, err)
		}
		if h == hash {
			found, ok = sym, true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("symscan: 0x%08x in object 0x%x: %w", hash, obj.Addr, ErrSymbolNotFound)
	}

	addr := found.Value + obj.Bias
	if s.Platform.Ifunc && found.Type() == elfmem.STT_GNU_IFUNC {
		if s.Ifunc == nil {
			return 0, fmt.Errorf("symscan: 0x%08x is an IFUNC at 0x%x: %w: no resolver caller",
				hash, addr, elfmem.ErrUnsupportedPlatform)
		}
		target, err := s.Ifunc.CallIfunc(addr)
		if err != nil {
			return 0, fmt.Errorf("symscan: IFUNC resolver 0x%x: %w", addr, err)
		}
		return target, nil
	}
	return addr, nil
}

// Symbols calls fn for every defined symbol of obj, with its name and hash,
// until fn returns an error.
func (s Scanner) Symbols(obj linkmap.Object, fn func(Symbol) error) error {
	return s.each(obj, func(t Table, sym elfmem.Sym) (bool, error) {
		name, err := s.View.CString(t.Strtab + uint64(sym.Name))
		if err != nil {
			return false, fmt.Errorf("symscan: name of symbol at 0x%x: %w", sym.Addr, err)
		}
		if err := fn(Symbol{Name: name, Hash: sdbm.Sum(name), Value: sym.Value, Type: sym.Type()}); err != nil {
			return false, err
		}
		return true, nil
	})
}
