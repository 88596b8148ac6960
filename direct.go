package dnload

import (
	"fmt"

	"github.com/sliverarmory/dnload/memmod"
)

// Direct binds slots by name through the C library's dlsym. It needs the
// names the hash path exists to avoid, and cgo.
type Direct struct{}

func (Direct) Bind(s Slot) (uintptr, error) {
	if s.Name == "" {
		return 0, fmt.Errorf("dnload: slot 0x%08x has no name to look up", s.Hash)
	}
	return memmod.Lookup(s.Name)
}
