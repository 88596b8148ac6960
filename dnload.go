// Package dnload binds tables of dynamic symbols to process addresses.
//
// A table lists the symbols a program needs, each identified by the SDBM
// hash of its name. Binding walks the dynamic loader's link map and the
// symbol tables of the loaded objects, so the program carries neither the
// names nor a dependency on dlsym. The ordinary dlsym path is available
// as Direct and yields the same addresses.
package dnload

import (
	"errors"
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/sdbm"
	"github.com/sliverarmory/dnload/symscan"
)

var (
	ErrSymbolNotFound          = symscan.ErrSymbolNotFound
	ErrMalformedDynamicSection = elfmem.ErrMalformedDynamicSection
	ErrUnsupportedPlatform     = elfmem.ErrUnsupportedPlatform

	// ErrDuplicateHash rejects tables where two slots would bind to the
	// same symbol.
	ErrDuplicateHash = errors.New("dnload: duplicate symbol hash")
	// ErrHashMismatch rejects slots whose precomputed hash does not match
	// their name.
	ErrHashMismatch = errors.New("dnload: hash does not match name")
	// ErrResolverClosed is returned after Close.
	ErrResolverClosed = errors.New("dnload: resolver is closed")
)

// Slot is one entry of an import table.
type Slot struct {
	// Name may be empty for tables that ship hashes only.
	Name string
	Hash uint32
	// Signature is the C prototype, kept for documentation and tooling.
	Signature string
}

// SlotOf returns the slot for name.
func SlotOf(name string) Slot {
	return Slot{Name: name, Hash: sdbm.Sum(name)}
}

// HashSlot returns a nameless slot.
func HashSlot(hash uint32) Slot {
	return Slot{Hash: hash}
}

func (s Slot) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("0x%08x", s.Hash)
}

// A Binder produces the process address of one slot.
type Binder interface {
	Bind(Slot) (uintptr, error)
}

// BinderFunc adapts a function to Binder.
type BinderFunc func(Slot) (uintptr, error)

func (f BinderFunc) Bind(s Slot) (uintptr, error) { return f(s) }
