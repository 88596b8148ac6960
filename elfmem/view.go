// Package elfmem decodes ELF loader metadata living in a process image.
//
// Every access goes through an io.ReaderAt whose offsets are virtual
// addresses, so a bad pointer turns into an error rather than a fault. The
// records mirror Elf32_* / Elf64_*, struct link_map and struct r_debug as laid
// out by the platform ABI.
package elfmem

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sliverarmory/dnload/sdbm"
)

var (
	// ErrMalformedDynamicSection reports loader metadata that is missing,
	// truncated or unreadable.
	ErrMalformedDynamicSection = errors.New("malformed dynamic section")
	// ErrUnsupportedPlatform reports an OS, architecture or memory source
	// this package cannot handle.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrFault is returned by in-memory images for unmapped addresses.
	ErrFault = errors.New("address not mapped")
	// ErrTagNotFound is wrapped together with ErrMalformedDynamicSection
	// when a dynamic array ends without the requested tag.
	ErrTagNotFound = errors.New("dynamic tag not present")
)

// MaxNameLength bounds symbol name reads.
const MaxNameLength = 4096

// STT_GNU_IFUNC is missing from debug/elf.
const STT_GNU_IFUNC elf.SymType = 10

// VersymHidden marks a DT_VERSYM entry whose symbol is a non-default
// version, invisible to unversioned lookups.
const VersymHidden = 0x8000

// View reads ELF records of one class from process memory.
type View struct {
	r     io.ReaderAt
	class elf.Class
}

// NewView returns a view over r for 32-bit or 64-bit records.
func NewView(r io.ReaderAt, class elf.Class) (View, error) {
	if r == nil {
		return View{}, errors.New("elfmem: nil memory reader")
	}
	switch class {
	case elf.ELFCLASS32, elf.ELFCLASS64:
	default:
		return View{}, fmt.Errorf("elfmem: %w: class %s", ErrUnsupportedPlatform, class)
	}
	return View{r: r, class: class}, nil
}

// Class reports the ELF class of the view.
func (v View) Class() elf.Class { return v.class }

// WordSize is the pointer width in bytes.
func (v View) WordSize() uint64 {
	if v.class == elf.ELFCLASS64 {
		return 8
	}
	return 4
}

// DynSize is sizeof(ElfN_Dyn).
func (v View) DynSize() uint64 { return 2 * v.WordSize() }

// SymSize is sizeof(ElfN_Sym).
func (v View) SymSize() uint64 {
	if v.class == elf.ELFCLASS64 {
		return 24
	}
	return 16
}

// PhdrSize is sizeof(ElfN_Phdr).
func (v View) PhdrSize() uint64 {
	if v.class == elf.ELFCLASS64 {
		return 56
	}
	return 32
}

func (v View) read(addr uint64, n uint64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := v.r.ReadAt(buf, int64(addr)); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes at 0x%x: %w", ErrMalformedDynamicSection, n, addr, err)
	}
	return buf, nil
}

func (v View) word(b []byte) uint64 {
	if v.class == elf.ELFCLASS64 {
		return binary.LittleEndian.Uint64(b)
	}
	return uint64(binary.LittleEndian.Uint32(b))
}

// Word reads one pointer-sized value.
func (v View) Word(addr uint64) (uint64, error) {
	b, err := v.read(addr, v.WordSize())
	if err != nil {
		return 0, err
	}
	return v.word(b), nil
}

// Uint32 reads a 32-bit value.
func (v View) Uint32(addr uint64) (uint32, error) {
	b, err := v.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Ehdr is the subset of ElfN_Ehdr needed to find the program headers.
type Ehdr struct {
	Type      elf.Type
	Machine   elf.Machine
	Phoff     uint64
	Phentsize uint16
	Phnum     uint16
}

// Ehdr decodes the ELF header at addr and checks its identification bytes.
func (v View) Ehdr(addr uint64) (Ehdr, error) {
	size := uint64(52)
	if v.class == elf.ELFCLASS64 {
		size = 64
	}
	b, err := v.read(addr, size)
	if err != nil {
		return Ehdr{}, err
	}
	if string(b[:4]) != elf.ELFMAG {
		return Ehdr{}, fmt.Errorf("%w: no ELF header at 0x%x", ErrMalformedDynamicSection, addr)
	}
	if elf.Class(b[elf.EI_CLASS]) != v.class {
		return Ehdr{}, fmt.Errorf("%w: ELF header at 0x%x is %s, want %s",
			ErrMalformedDynamicSection, addr, elf.Class(b[elf.EI_CLASS]), v.class)
	}

	h := Ehdr{
		Type:    elf.Type(binary.LittleEndian.Uint16(b[16:])),
		Machine: elf.Machine(binary.LittleEndian.Uint16(b[18:])),
	}
	if v.class == elf.ELFCLASS64 {
		h.Phoff = binary.LittleEndian.Uint64(b[32:])
		h.Phentsize = binary.LittleEndian.Uint16(b[54:])
		h.Phnum = binary.LittleEndian.Uint16(b[56:])
	} else {
		h.Phoff = uint64(binary.LittleEndian.Uint32(b[28:]))
		h.Phentsize = binary.LittleEndian.Uint16(b[42:])
		h.Phnum = binary.LittleEndian.Uint16(b[44:])
	}
	return h, nil
}

// Phdr is the subset of ElfN_Phdr used to find PT_DYNAMIC.
type Phdr struct {
	Type  elf.ProgType
	Vaddr uint64
}

// Phdr decodes one program header.
func (v View) Phdr(addr uint64) (Phdr, error) {
	b, err := v.read(addr, v.PhdrSize())
	if err != nil {
		return Phdr{}, err
	}
	p := Phdr{Type: elf.ProgType(binary.LittleEndian.Uint32(b))}
	if v.class == elf.ELFCLASS64 {
		p.Vaddr = binary.LittleEndian.Uint64(b[16:])
	} else {
		p.Vaddr = uint64(binary.LittleEndian.Uint32(b[8:]))
	}
	return p, nil
}

// Sym is one ElfN_Sym row together with the address it was read from.
type Sym struct {
	Addr  uint64
	Name  uint32
	Info  uint8
	Other uint8
	Shndx elf.SectionIndex
	Value uint64
	Size  uint64
}

// Type returns the low nibble of st_info.
func (s Sym) Type() elf.SymType { return elf.SymType(s.Info & 0xf) }

// IsUndef reports an import rather than a definition.
func (s Sym) IsUndef() bool { return s.Shndx == elf.SHN_UNDEF }

// Syms decodes n consecutive entries starting at addr with a single read.
func (v View) Syms(addr uint64, n uint64) ([]Sym, error) {
	size := v.SymSize()
	b, err := v.read(addr, n*size)
	if err != nil {
		return nil, err
	}
	out := make([]Sym, n)
	for i := range out {
		off := uint64(i) * size
		out[i] = v.decodeSym(addr+off, b[off:off+size])
	}
	return out, nil
}

// Versyms reads n consecutive DT_VERSYM entries starting at addr.
func (v View) Versyms(addr uint64, n uint64) ([]uint16, error) {
	b, err := v.read(addr, 2*n)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return out, nil
}

func (v View) decodeSym(addr uint64, b []byte) Sym {
	s := Sym{Addr: addr, Name: binary.LittleEndian.Uint32(b)}
	if v.class == elf.ELFCLASS64 {
		s.Info = b[4]
		s.Other = b[5]
		s.Shndx = elf.SectionIndex(binary.LittleEndian.Uint16(b[6:]))
		s.Value = binary.LittleEndian.Uint64(b[8:])
		s.Size = binary.LittleEndian.Uint64(b[16:])
	} else {
		s.Value = uint64(binary.LittleEndian.Uint32(b[4:]))
		s.Size = uint64(binary.LittleEndian.Uint32(b[8:]))
		s.Info = b[12]
		s.Other = b[13]
		s.Shndx = elf.SectionIndex(binary.LittleEndian.Uint16(b[14:]))
	}
	return s
}

// HashCString computes the SDBM hash of the NUL-terminated string at addr
// without materializing it.
func (v View) HashCString(addr uint64) (uint32, error) {
	var (
		h   uint32
		buf [64]byte
	)
	for read := 0; read < MaxNameLength; {
		n, err := v.r.ReadAt(buf[:], int64(addr)+int64(read))
		for i := 0; i < n; i++ {
			if buf[i] == 0 {
				return sdbm.Update(h, buf[:i]), nil
			}
		}
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return 0, fmt.Errorf("%w: string at 0x%x: %w", ErrMalformedDynamicSection, addr, err)
		}
		h = sdbm.Update(h, buf[:n])
		read += n
	}
	return 0, fmt.Errorf("%w: string at 0x%x exceeds %d bytes", ErrMalformedDynamicSection, addr, MaxNameLength)
}

// CString reads the NUL-terminated string at addr.
func (v View) CString(addr uint64) (string, error) {
	var (
		out []byte
		buf [64]byte
	)
	for len(out) < MaxNameLength {
		n, err := v.r.ReadAt(buf[:], int64(addr)+int64(len(out)))
		for i := 0; i < n; i++ {
			if buf[i] == 0 {
				return string(append(out, buf[:i]...)), nil
			}
		}
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return "", fmt.Errorf("%w: string at 0x%x: %w", ErrMalformedDynamicSection, addr, err)
		}
		out = append(out, buf[:n]...)
	}
	return "", fmt.Errorf("%w: string at 0x%x exceeds %d bytes", ErrMalformedDynamicSection, addr, MaxNameLength)
}
