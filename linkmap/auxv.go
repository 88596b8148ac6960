package linkmap

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// Auxiliary vector keys, identical on Linux and FreeBSD.
const (
	atNull  = 0
	atPhdr  = 3
	atPhnum = 5
)

// ParseAuxv decodes a raw auxiliary vector, as found in /proc/<pid>/auxv,
// and returns the program header location it carries.
func ParseAuxv(raw []byte, class elf.Class) (AuxvPhdr, error) {
	word := 8
	if class == elf.ELFCLASS32 {
		word = 4
	}
	get := func(b []byte) uint64 {
		if word == 8 {
			return binary.LittleEndian.Uint64(b)
		}
		return uint64(binary.LittleEndian.Uint32(b))
	}

	var out AuxvPhdr
	for off := 0; off+2*word <= len(raw); off += 2 * word {
		key, val := get(raw[off:]), get(raw[off+word:])
		if key == atNull {
			break
		}
		out.set(key, val)
	}
	return out.check()
}

func (l *AuxvPhdr) set(key, val uint64) {
	switch key {
	case atPhdr:
		l.Phdr = val
	case atPhnum:
		l.Phnum = val
	}
}

func (l AuxvPhdr) check() (AuxvPhdr, error) {
	if l.Phdr == 0 || l.Phnum == 0 {
		return AuxvPhdr{}, fmt.Errorf("linkmap: %w: auxiliary vector lacks AT_PHDR/AT_PHNUM", ErrMalformedDynamicSection)
	}
	return l, nil
}
