//go:build linux || freebsd

package linkmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SelfAuxv returns the program header location of the running executable
// from the auxiliary vector the runtime saved at startup.
func SelfAuxv() (AuxvPhdr, error) {
	pairs, err := unix.Auxv()
	if err != nil {
		return AuxvPhdr{}, fmt.Errorf("linkmap: read auxiliary vector: %w", err)
	}
	var out AuxvPhdr
	for _, kv := range pairs {
		out.set(uint64(kv[0]), uint64(kv[1]))
	}
	return out.check()
}
