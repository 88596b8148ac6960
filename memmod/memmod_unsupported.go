//go:build !linux

package memmod

import (
	"fmt"

	"github.com/sliverarmory/dnload/elfmem"
)

var errUnsupported = fmt.Errorf("memmod: %w: only linux is supported", elfmem.ErrUnsupportedPlatform)

func Lookup(name string) (uintptr, error) {
	_ = name
	return 0, errUnsupported
}

func Call0(fn uintptr) (uintptr, error) {
	_ = fn
	return 0, errUnsupported
}

func RuntimeLibc() (string, uintptr, error) {
	return "", 0, errUnsupported
}
