package main

import (
	"debug/elf"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/dnload"
	"github.com/sliverarmory/dnload/intro"
	"github.com/sliverarmory/dnload/sdbm"
	"github.com/sliverarmory/dnload/symscan"
)

var checkNames []string

var checkCmd = &cobra.Command{
	Use:   "check [FILE...]",
	Short: "Find symbols whose hash collides with an import table entry",
	Long: `Scan the dynamic symbols of the given ELF files, or of every object
loaded in the target process when no file is given, for names that hash
like a table entry but are not it. A collision in an object searched
before the real definition would be bound in its place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := intro.Table()
		if len(checkNames) > 0 {
			slots := make([]dnload.Slot, 0, len(checkNames))
			for _, name := range checkNames {
				slots = append(slots, dnload.SlotOf(name))
			}
			t, err := dnload.NewTable(slots...)
			if err != nil {
				return err
			}
			table = t
		}

		c := newCollisions(table)
		if len(args) == 0 {
			r, release, err := openResolver()
			if err != nil {
				return err
			}
			defer release()
			err = r.Symbols(func(object string, sym symscan.Symbol) error {
				c.add(object, sym.Name, sym.Hash)
				return nil
			})
			if err != nil {
				log.Warnw("symbol scan incomplete", "error", err)
			}
		} else {
			for _, path := range args {
				if err := c.addFile(path); err != nil {
					return err
				}
			}
		}

		out := cmd.OutOrStdout()
		for _, h := range c.found {
			state := "collides"
			if h.shadows {
				state = "shadows"
			}
			fmt.Fprintf(out, "0x%08x %s %s %s in %s\n", h.hash, h.name, state, h.want, h.object)
		}
		if len(c.found) > 0 {
			return fmt.Errorf("%d colliding symbols", len(c.found))
		}
		fmt.Fprintf(out, "no collisions in %d symbols\n", c.seen)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkNames, "names", nil, "Check these names instead of the built-in table")
	addTargetFlags(checkCmd.Flags())
}

type collision struct {
	hash    uint32
	name    string
	want    string
	object  string
	shadows bool
}

// collisions tracks, in search order, symbols that would answer for a
// table entry they are not.
type collisions struct {
	hashes *roaring.Bitmap
	names  map[uint32]string
	bound  map[uint32]bool
	found  []collision
	seen   int
}

func newCollisions(t *dnload.Table) *collisions {
	names := make(map[uint32]string, t.Len())
	for _, s := range t.Slots() {
		names[s.Hash] = s.Name
	}
	return &collisions{hashes: t.Hashes(), names: names, bound: make(map[uint32]bool)}
}

func (c *collisions) add(object, name string, hash uint32) {
	c.seen++
	if !c.hashes.Contains(hash) {
		return
	}
	want := c.names[hash]
	if name == want {
		c.bound[hash] = true
		return
	}
	c.found = append(c.found, collision{
		hash:    hash,
		name:    name,
		want:    want,
		object:  object,
		shadows: !c.bound[hash],
	})
}

func (c *collisions) addFile(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if errors.Is(err, elf.ErrNoSymbols) {
		log.Debugw("no dynamic symbols", "file", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF {
			continue
		}
		c.add(path, s.Name, sdbm.Sum(s.Name))
	}
	return nil
}
