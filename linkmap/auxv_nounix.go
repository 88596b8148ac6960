//go:build !linux && !freebsd

package linkmap

import "fmt"

func SelfAuxv() (AuxvPhdr, error) {
	return AuxvPhdr{}, fmt.Errorf("linkmap: %w: no auxiliary vector", ErrUnsupportedPlatform)
}
