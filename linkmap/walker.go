package linkmap

import (
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
)

// MaxObjects bounds a link_map walk.
const MaxObjects = 4096

// Object is one loaded object from the link_map chain.
type Object struct {
	// Addr is the address of the link_map entry itself.
	Addr    uint64
	Bias    uint64
	Name    uint64
	Dynamic uint64
}

// Walker follows l_next pointers.
type Walker struct {
	View     elfmem.View
	Platform Platform
}

// Chain returns every entry reachable from head, in order. Entries read
// before a failure are returned together with the error.
func (w Walker) Chain(head uint64) ([]Object, error) {
	var (
		out  []Object
		seen = make(map[uint64]struct{})
	)
	for addr := head; addr != 0; {
		if _, ok := seen[addr]; ok {
			return out, fmt.Errorf("linkmap: %w: l_next cycles back to 0x%x", ErrMalformedDynamicSection, addr)
		}
		if len(out) == MaxObjects {
			return out, fmt.Errorf("linkmap: %w: more than %d objects", ErrMalformedDynamicSection, MaxObjects)
		}
		seen[addr] = struct{}{}

		lm, err := w.View.LinkMap(addr, w.Platform.Layout)
		if err != nil {
			return out, fmt.Errorf("linkmap: entry %d: %w", len(out), err)
		}
		out = append(out, Object{Addr: lm.Addr, Bias: lm.Bias, Name: lm.Name, Dynamic: lm.Dynamic})
		addr = lm.Next
	}
	return out, nil
}

// Objects returns the chain without its first Platform.Skip entries, which
// are the executable and, on 64-bit Linux, the vDSO.
func (w Walker) Objects(head uint64) ([]Object, error) {
	all, err := w.Chain(head)
	skip := min(w.Platform.Skip, len(all))
	return all[skip:], err
}

// Name reads l_name. The executable and the vDSO usually have an empty
// or synthetic name.
func (w Walker) Name(o Object) (string, error) {
	if o.Name == 0 {
		return "", nil
	}
	name, err := w.View.CString(o.Name)
	if err != nil {
		return "", fmt.Errorf("linkmap: name of entry at 0x%x: %w", o.Addr, err)
	}
	return name, nil
}

// Names reads l_name of every entry in the chain starting at head.
func (w Walker) Names(head uint64) ([]string, error) {
	objs, err := w.Chain(head)
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		name, nerr := w.Name(o)
		if nerr != nil {
			name = fmt.Sprintf("<0x%x>", o.Name)
		}
		names = append(names, name)
	}
	return names, err
}
