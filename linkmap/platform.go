// Package linkmap finds the dynamic loader's list of loaded objects in a
// process image and walks it.
package linkmap

import (
	"debug/elf"
	"fmt"
	"io"
	"runtime"

	"github.com/sliverarmory/dnload/elfmem"
)

// ErrUnsupportedPlatform is returned for GOOS/GOARCH pairs without a profile.
var ErrUnsupportedPlatform = elfmem.ErrUnsupportedPlatform

// Platform describes how the loader of one OS/architecture pair lays out
// its bookkeeping.
type Platform struct {
	GOOS    string
	GOARCH  string
	Class   elf.Class
	Machine elf.Machine

	// FixedBase is where a non-PIE executable's ELF header is mapped.
	FixedBase uint64
	// Skip is how many leading link_map entries never hold a wanted
	// definition: the executable, plus the vDSO on 64-bit Linux.
	Skip int
	// Ifunc reports whether STT_GNU_IFUNC symbols must be called to obtain
	// the final address.
	Ifunc bool
	// AbsoluteDynamic reports whether the loader relocates d_ptr values in
	// place.
	AbsoluteDynamic bool
	// Layout is the struct link_map field layout.
	Layout elfmem.LinkMapLayout
}

var (
	linuxLayout   = elfmem.LinkMapLayout{Addr: 0, Name: 1, Dynamic: 2, Next: 3}
	freebsdLayout = elfmem.LinkMapLayout{Addr: 5, Name: 1, Dynamic: 2, Next: 3}
)

var platforms = []Platform{
	{GOOS: "linux", GOARCH: "amd64", Class: elf.ELFCLASS64, Machine: elf.EM_X86_64, FixedBase: 0x400000, Skip: 2, Ifunc: true, AbsoluteDynamic: true, Layout: linuxLayout},
	{GOOS: "linux", GOARCH: "arm64", Class: elf.ELFCLASS64, Machine: elf.EM_AARCH64, FixedBase: 0x400000, Skip: 2, Ifunc: true, AbsoluteDynamic: true, Layout: linuxLayout},
	{GOOS: "linux", GOARCH: "386", Class: elf.ELFCLASS32, Machine: elf.EM_386, FixedBase: 0x2000000, Skip: 1, Ifunc: true, AbsoluteDynamic: true, Layout: linuxLayout},
	{GOOS: "linux", GOARCH: "arm", Class: elf.ELFCLASS32, Machine: elf.EM_ARM, FixedBase: 0x10000, Skip: 1, AbsoluteDynamic: true, Layout: linuxLayout},
	{GOOS: "freebsd", GOARCH: "amd64", Class: elf.ELFCLASS64, Machine: elf.EM_X86_64, FixedBase: 0x400000, Skip: 1, Layout: freebsdLayout},
	{GOOS: "freebsd", GOARCH: "arm64", Class: elf.ELFCLASS64, Machine: elf.EM_AARCH64, FixedBase: 0x400000, Skip: 1, Layout: freebsdLayout},
	{GOOS: "freebsd", GOARCH: "386", Class: elf.ELFCLASS32, Machine: elf.EM_386, FixedBase: 0x2000000, Skip: 1, Layout: freebsdLayout},
}

// PlatformFor returns the profile for goos/goarch.
func PlatformFor(goos, goarch string) (Platform, error) {
	for _, p := range platforms {
		if p.GOOS == goos && p.GOARCH == goarch {
			return p, nil
		}
	}
	return Platform{}, fmt.Errorf("linkmap: %w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

// Current returns the profile of the running binary.
func Current() (Platform, error) {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

func (p Platform) String() string { return p.GOOS + "/" + p.GOARCH }

// View wraps r in an elfmem.View of the platform's class.
func (p Platform) View(r io.ReaderAt) (elfmem.View, error) {
	return elfmem.NewView(r, p.Class)
}
