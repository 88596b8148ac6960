package dnload

import (
	"fmt"
	"slices"
)

// Resolved holds one address per slot of a table. It is built once by Bind
// and never changes.
type Resolved struct {
	table *Table
	addrs []uintptr
}

// Bind resolves every slot of t with b, strictly in table order, and stops
// at the first failure.
func Bind(b Binder, t *Table) (*Resolved, error) {
	addrs := make([]uintptr, len(t.slots))
	for i, s := range t.slots {
		addr, err := b.Bind(s)
		if err != nil {
			return nil, fmt.Errorf("dnload: slot %d (%s): %w", i, s, err)
		}
		addrs[i] = addr
	}
	return &Resolved{table: t, addrs: addrs}, nil
}

// Load binds t with the default binder once per process.
func Load(t *Table) (*Resolved, error) {
	return t.Load(BinderFunc(func(s Slot) (uintptr, error) {
		b, err := defaultBinder()
		if err != nil {
			return 0, err
		}
		return b.Bind(s)
	}))
}

func (r *Resolved) Len() int { return len(r.addrs) }

// Addr returns the address bound to slot i.
func (r *Resolved) Addr(i int) uintptr { return r.addrs[i] }

// Addrs returns a copy of all addresses in slot order.
func (r *Resolved) Addrs() []uintptr { return slices.Clone(r.addrs) }

// Lookup returns the address bound to the slot named name.
func (r *Resolved) Lookup(name string) (uintptr, bool) {
	i, ok := r.table.Index(name)
	if !ok {
		return 0, false
	}
	return r.addrs[i], true
}

func (r *Resolved) Table() *Table { return r.table }

// Slots returns the slots of the bound table in order.
func (r *Resolved) Slots() []Slot { return r.table.Slots() }
