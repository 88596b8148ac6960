package dnload

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/sliverarmory/dnload/sdbm"
)

// Table is an ordered, validated list of slots. The slot index is the
// position of the address in the Resolved it binds to.
type Table struct {
	slots  []Slot
	byName map[string]int

	once    sync.Once
	loaded  *Resolved
	loadErr error
}

// NewTable validates slots and keeps their order. A named slot without a
// hash gets one; a named slot with a wrong hash is rejected, and so is any
// hash appearing twice.
func NewTable(slots ...Slot) (*Table, error) {
	if len(slots) == 0 {
		return nil, errors.New("dnload: empty import table")
	}
	t := &Table{
		slots:  make([]Slot, len(slots)),
		byName: make(map[string]int, len(slots)),
	}
	seen := roaring.New()
	for i, s := range slots {
		if s.Name != "" {
			h := sdbm.Sum(s.Name)
			switch {
			case s.Hash == 0:
				s.Hash = h
			case s.Hash != h:
				return nil, fmt.Errorf("%w: slot %d (%s) has 0x%08x, name hashes to 0x%08x",
					ErrHashMismatch, i, s.Name, s.Hash, h)
			}
			t.byName[s.Name] = i
		} else if s.Hash == 0 {
			return nil, fmt.Errorf("dnload: slot %d has neither name nor hash", i)
		}
		if !seen.CheckedAdd(s.Hash) {
			first := slices.IndexFunc(t.slots[:i], func(o Slot) bool { return o.Hash == s.Hash })
			return nil, fmt.Errorf("%w: slot %d (%s) and slot %d (%s) are both 0x%08x",
				ErrDuplicateHash, first, t.slots[first], i, s, s.Hash)
		}
		t.slots[i] = s
	}
	return t, nil
}

// MustTable is NewTable for package-level tables known to be valid.
func MustTable(slots ...Slot) *Table {
	t, err := NewTable(slots...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int { return len(t.slots) }

func (t *Table) Slot(i int) Slot { return t.slots[i] }

// Slots returns a copy of the slots in order.
func (t *Table) Slots() []Slot { return slices.Clone(t.slots) }

// Index returns the position of the slot named name.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.byName[name]
	return i, ok
}

// Hashes returns the set of hashes in the table.
func (t *Table) Hashes() *roaring.Bitmap {
	bm := roaring.New()
	for _, s := range t.slots {
		bm.Add(s.Hash)
	}
	return bm
}

// Load binds t with b the first time it is called and returns that result,
// success or failure, on every later call.
func (t *Table) Load(b Binder) (*Resolved, error) {
	t.once.Do(func() {
		t.loaded, t.loadErr = Bind(b, t)
	})
	return t.loaded, t.loadErr
}
