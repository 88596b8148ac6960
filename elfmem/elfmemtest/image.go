// Package elfmemtest builds synthetic process images: an executable with
// program headers and DT_DEBUG, a loader r_debug, a link_map chain, and per
// object dynamic arrays with symbol, string, version and hash tables. The
// layout knobs reproduce the conventions and the violations that symbol
// resolution has to cope with.
package elfmemtest

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/sliverarmory/dnload/elfmem"
)

// Symbol is one dynamic symbol of a synthetic object.
type Symbol struct {
	Name      string
	Value     uint64
	Ifunc     bool
	Undefined bool
	// Hidden gives the row a non-default version in DT_VERSYM. It has no
	// effect unless the object has a versym table.
	Hidden bool
}

// Object describes one loaded object.
type Object struct {
	Name    string
	Bias    uint64
	Symbols []Symbol

	// DynamicOrder lists the tags written after entry 0, which is always a
	// DT_NEEDED. Tags the object does not have a table for are written with
	// a zero value. Nil selects DT_STRTAB, DT_SYMTAB, DT_STRSZ, DT_SYMENT and
	// then DT_VERSYM or DT_HASH when enabled.
	DynamicOrder []elf.DynTag

	// Versym places a DT_VERSYM table between the symbol table and the
	// string table, padded to a whole number of symbol rows.
	Versym bool
	// VersymLast moves the versym table after the string table, where GNU
	// ld puts .gnu.version.
	VersymLast bool
	// Decoys are written as symbol rows right after the real table, or
	// after the versym table when Versym is set. Only a scan that trusts
	// the string table as its bound sees them.
	Decoys []Symbol
	// HashTable emits a DT_HASH table.
	HashTable bool
}

// Placed is an Object together with where its metadata landed.
type Placed struct {
	Object
	LinkMap   uint64
	Dynamic   uint64
	Symtab    uint64
	Strtab    uint64
	StrSize   uint64
	VersymTab uint64
	HashTab   uint64
}

// Image is a finished synthetic process.
type Image struct {
	Mem     *elfmem.Sparse
	View    elfmem.View
	ExeBase uint64
	Phdr    uint64
	Phnum   uint64
	RDebug  uint64
	Head    uint64
	Objects []Placed
}

// Builder lays out images.
type Builder struct {
	class    elf.Class
	layout   elfmem.LinkMapLayout
	relative bool
	cursor   uint64
	mem      *elfmem.Sparse
}

// LinuxLayout is the glibc struct link_map prefix.
var LinuxLayout = elfmem.LinkMapLayout{Addr: 0, Name: 1, Dynamic: 2, Next: 3}

// New returns a builder for the given class and link_map layout.
func New(class elf.Class, layout elfmem.LinkMapLayout) *Builder {
	return &Builder{
		class:  class,
		layout: layout,
		cursor: 0x10000000,
		mem:    &elfmem.Sparse{},
	}
}

// RelativeDynamic writes d_ptr values relative to the object's bias instead
// of the already relocated addresses glibc leaves behind.
func (b *Builder) RelativeDynamic() *Builder {
	b.relative = true
	return b
}

func (b *Builder) word() uint64 {
	if b.class == elf.ELFCLASS64 {
		return 8
	}
	return 4
}

func (b *Builder) putWord(buf []byte, v uint64) {
	if b.class == elf.ELFCLASS64 {
		binary.LittleEndian.PutUint64(buf, v)
		return
	}
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

func (b *Builder) alloc(data []byte) uint64 {
	addr := b.cursor
	b.mem.Map(addr, data)
	b.cursor = (addr + uint64(len(data)) + 0xfff) &^ 0xfff
	return addr
}

func (b *Builder) ptr(runtime, bias uint64) uint64 {
	if b.relative {
		return runtime - bias
	}
	return runtime
}

func (b *Builder) symSize() uint64 {
	if b.class == elf.ELFCLASS64 {
		return 24
	}
	return 16
}

func (b *Builder) putSym(buf []byte, name uint32, s Symbol) {
	info := byte(elf.STB_GLOBAL)<<4 | byte(elf.STT_FUNC)
	if s.Ifunc {
		info = byte(elf.STB_GLOBAL)<<4 | byte(elfmem.STT_GNU_IFUNC)
	}
	shndx := uint16(12)
	if s.Undefined {
		shndx = uint16(elf.SHN_UNDEF)
	}
	binary.LittleEndian.PutUint32(buf, name)
	if b.class == elf.ELFCLASS64 {
		buf[4] = info
		binary.LittleEndian.PutUint16(buf[6:], shndx)
		binary.LittleEndian.PutUint64(buf[8:], s.Value)
		binary.LittleEndian.PutUint64(buf[16:], 16)
		return
	}
	binary.LittleEndian.PutUint32(buf[4:], uint32(s.Value))
	binary.LittleEndian.PutUint32(buf[8:], 16)
	buf[12] = info
	binary.LittleEndian.PutUint16(buf[14:], shndx)
}

// tables writes symtab [versym] [decoys] strtab [versym] [hash] as one block.
func (b *Builder) tables(p *Placed) {
	strtab := []byte{0}
	names := make(map[string]uint32)
	intern := func(name string) uint32 {
		if off, ok := names[name]; ok {
			return off
		}
		off := uint32(len(strtab))
		strtab = append(strtab, name...)
		strtab = append(strtab, 0)
		names[name] = off
		return off
	}

	nsyms := uint64(len(p.Symbols) + 1)
	symBytes := nsyms * b.symSize()

	var versym []byte
	if p.Object.Versym {
		versym = make([]byte, (nsyms*2+b.symSize()-1)/b.symSize()*b.symSize())
		for i, s := range p.Symbols {
			ver := uint16(1)
			if s.Hidden {
				ver = elfmem.VersymHidden | 2
			}
			binary.LittleEndian.PutUint16(versym[2*(i+1):], ver)
		}
	}
	between := versym
	if p.VersymLast {
		between = nil
	}

	block := make([]byte, symBytes, symBytes+uint64(len(between))+uint64(len(p.Decoys))*b.symSize())
	for i, s := range p.Symbols {
		b.putSym(block[uint64(i+1)*b.symSize():], intern(s.Name), s)
	}
	block = append(block, between...)
	for _, s := range p.Decoys {
		row := make([]byte, b.symSize())
		b.putSym(row, intern(s.Name), s)
		block = append(block, row...)
	}

	var hash []byte
	if p.HashTable {
		hash = make([]byte, 4*(3+nsyms))
		binary.LittleEndian.PutUint32(hash, 1)
		binary.LittleEndian.PutUint32(hash[4:], uint32(nsyms))
		binary.LittleEndian.PutUint32(hash[8:], uint32(nsyms-1))
		for i := uint64(1); i < nsyms; i++ {
			binary.LittleEndian.PutUint32(hash[12+4*i:], uint32(i-1))
		}
	}

	strBytes := uint64(len(strtab))
	if p.VersymLast {
		strtab = append(strtab, make([]byte, (8-len(strtab)%8)%8)...)
		strtab = append(strtab, versym...)
	}
	base := b.alloc(append(append(block, strtab...), hash...))
	p.Symtab = base
	p.Strtab = base + uint64(len(block))
	p.StrSize = strBytes
	switch {
	case versym == nil:
	case p.VersymLast:
		p.VersymTab = p.Strtab + uint64(len(strtab)-len(versym))
	default:
		p.VersymTab = base + symBytes
	}
	if p.HashTable {
		p.HashTab = p.Strtab + uint64(len(strtab))
	}
}

func (b *Builder) dynamic(p *Placed, extra ...elf.DynTag) []uint64 {
	order := p.DynamicOrder
	if order == nil {
		order = []elf.DynTag{elf.DT_STRTAB, elf.DT_SYMTAB, elf.DT_STRSZ, elf.DT_SYMENT}
		if p.Object.Versym {
			order = append(order, elf.DT_VERSYM)
		}
		if p.HashTable {
			order = append(order, elf.DT_HASH)
		}
	}
	order = append(slices.Clone(order), extra...)

	vals := make([]uint64, len(order))
	for i, tag := range order {
		switch tag {
		case elf.DT_STRTAB:
			vals[i] = b.ptr(p.Strtab, p.Bias)
		case elf.DT_SYMTAB:
			vals[i] = b.ptr(p.Symtab, p.Bias)
		case elf.DT_VERSYM:
			if p.VersymTab != 0 {
				vals[i] = b.ptr(p.VersymTab, p.Bias)
			}
		case elf.DT_HASH:
			if p.HashTab != 0 {
				vals[i] = b.ptr(p.HashTab, p.Bias)
			}
		case elf.DT_STRSZ:
			vals[i] = p.StrSize
		case elf.DT_SYMENT:
			vals[i] = b.symSize()
		}
	}

	dyn := 2 * b.word()
	buf := make([]byte, uint64(len(order)+2)*dyn)
	b.putWord(buf, uint64(elf.DT_NEEDED))
	b.putWord(buf[b.word():], 1)
	for i, tag := range order {
		b.putWord(buf[uint64(i+1)*dyn:], uint64(int64(tag)))
		b.putWord(buf[uint64(i+1)*dyn+b.word():], vals[i])
	}
	p.Dynamic = b.alloc(buf)

	slots := make([]uint64, len(order))
	for i := range order {
		slots[i] = p.Dynamic + uint64(i+1)*dyn + b.word()
	}
	return slots
}

// Build lays out objs, the first being the executable whose ELF header is
// placed at exeBase, chained in order through l_next.
func (b *Builder) Build(exeBase uint64, objs ...Object) *Image {
	if len(objs) == 0 {
		panic("elfmemtest: Build needs at least the executable")
	}
	img := &Image{Mem: b.mem, ExeBase: exeBase}
	view, err := elfmem.NewView(b.mem, b.class)
	if err != nil {
		panic(err)
	}
	img.View = view

	debugSlot := uint64(0)
	for i, o := range objs {
		p := Placed{Object: o}
		b.tables(&p)
		if i == 0 {
			slots := b.dynamic(&p, elf.DT_DEBUG)
			debugSlot = slots[len(slots)-1]
		} else {
			b.dynamic(&p)
		}
		img.Objects = append(img.Objects, p)
	}

	lmWords := 1 + max(b.layout.Addr, b.layout.Name, b.layout.Dynamic, b.layout.Next)
	for i := range img.Objects {
		img.Objects[i].LinkMap = b.alloc(make([]byte, uint64(lmWords)*b.word()))
	}
	for i := range img.Objects {
		p := &img.Objects[i]
		lm := b.mem.Bytes(p.LinkMap)
		b.putWord(lm[uint64(b.layout.Addr)*b.word():], p.Bias)
		b.putWord(lm[uint64(b.layout.Name)*b.word():], b.alloc(append([]byte(p.Name), 0)))
		b.putWord(lm[uint64(b.layout.Dynamic)*b.word():], p.Dynamic)
		if i+1 < len(img.Objects) {
			b.putWord(lm[uint64(b.layout.Next)*b.word():], img.Objects[i+1].LinkMap)
		}
	}
	img.Head = img.Objects[0].LinkMap

	rdebug := make([]byte, 5*b.word())
	binary.LittleEndian.PutUint32(rdebug, 1)
	b.putWord(rdebug[b.word():], img.Head)
	img.RDebug = b.alloc(rdebug)
	b.putWord(b.mem.Bytes(debugSlot), img.RDebug)

	b.header(img)
	return img
}

// header writes the executable's ELF header and PT_PHDR, PT_LOAD, PT_DYNAMIC
// program headers at ExeBase.
func (b *Builder) header(img *Image) {
	ehsize, phsize := uint64(52), uint64(32)
	if b.class == elf.ELFCLASS64 {
		ehsize, phsize = 64, 56
	}
	const phnum = 3
	buf := make([]byte, ehsize+phnum*phsize)
	copy(buf, elf.ELFMAG)
	buf[elf.EI_CLASS] = byte(b.class)
	buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	binary.LittleEndian.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	if b.class == elf.ELFCLASS64 {
		binary.LittleEndian.PutUint16(buf[18:], uint16(elf.EM_X86_64))
		binary.LittleEndian.PutUint64(buf[32:], ehsize)
		binary.LittleEndian.PutUint16(buf[54:], uint16(phsize))
		binary.LittleEndian.PutUint16(buf[56:], phnum)
	} else {
		binary.LittleEndian.PutUint16(buf[18:], uint16(elf.EM_386))
		binary.LittleEndian.PutUint32(buf[28:], uint32(ehsize))
		binary.LittleEndian.PutUint16(buf[42:], uint16(phsize))
		binary.LittleEndian.PutUint16(buf[44:], phnum)
	}

	progs := []struct {
		typ   elf.ProgType
		vaddr uint64
	}{
		{elf.PT_PHDR, img.ExeBase + ehsize},
		{elf.PT_LOAD, img.ExeBase},
		{elf.PT_DYNAMIC, img.Objects[0].Dynamic},
	}
	for i, p := range progs {
		ph := buf[ehsize+uint64(i)*phsize:]
		binary.LittleEndian.PutUint32(ph, uint32(p.typ))
		if b.class == elf.ELFCLASS64 {
			binary.LittleEndian.PutUint32(ph[4:], uint32(elf.PF_R))
			binary.LittleEndian.PutUint64(ph[16:], p.vaddr)
		} else {
			binary.LittleEndian.PutUint32(ph[8:], uint32(p.vaddr))
			binary.LittleEndian.PutUint32(ph[24:], uint32(elf.PF_R))
		}
	}
	b.mem.Map(img.ExeBase, buf)
	img.Phdr = img.ExeBase + ehsize
	img.Phnum = phnum
}

// PokeWord overwrites one pointer-sized value in the image.
func (img *Image) PokeWord(addr, v uint64) {
	buf := img.Mem.Bytes(addr)
	if buf == nil {
		panic(fmt.Sprintf("elfmemtest: 0x%x is not mapped", addr))
	}
	if img.View.WordSize() == 8 {
		binary.LittleEndian.PutUint64(buf, v)
		return
	}
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// Object returns the placed object named name.
func (img *Image) Object(name string) Placed {
	for _, p := range img.Objects {
		if p.Name == name {
			return p
		}
	}
	panic(fmt.Sprintf("elfmemtest: no object %q", name))
}
