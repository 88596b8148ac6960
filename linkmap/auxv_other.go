//go:build !linux

package linkmap

import "fmt"

func ProcessAuxv(pid int, p Platform) (AuxvPhdr, error) {
	_ = p
	return AuxvPhdr{}, fmt.Errorf("linkmap: %w: auxiliary vector of pid %d", ErrUnsupportedPlatform, pid)
}
