package symscan_test

import (
	"debug/elf"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/elfmem/elfmemtest"
	"github.com/sliverarmory/dnload/linkmap"
	"github.com/sliverarmory/dnload/sdbm"
	"github.com/sliverarmory/dnload/symscan"
)

var exe = elfmemtest.Object{Symbols: []elfmemtest.Symbol{{Name: "main", Value: 0x401000}}}

func platform(t *testing.T, goos, goarch string) linkmap.Platform {
	t.Helper()
	p, err := linkmap.PlatformFor(goos, goarch)
	require.NoError(t, err)
	return p
}

func objectOf(p elfmemtest.Placed) linkmap.Object {
	return linkmap.Object{Addr: p.LinkMap, Bias: p.Bias, Dynamic: p.Dynamic}
}

func build(class elf.Class, lib elfmemtest.Object) (*elfmemtest.Image, linkmap.Object) {
	img := elfmemtest.New(class, elfmemtest.LinuxLayout).Build(0x400000, exe, lib)
	return img, objectOf(img.Objects[1])
}

func TestFindAddsBias(t *testing.T) {
	lib := elfmemtest.Object{Name: "libfoo.so", Bias: 0x2000, Symbols: []elfmemtest.Symbol{
		{Name: "bar", Value: 0x800},
		{Name: "foo", Value: 0x1000},
	}}
	cases := []struct {
		class  elf.Class
		goarch string
	}{
		{elf.ELFCLASS64, "amd64"},
		{elf.ELFCLASS32, "386"},
	}
	for _, c := range cases {
		for name, bounds := range map[string]symscan.Bounds{"adjacent": symscan.Adjacent{}, "safe": symscan.Safe{}} {
			t.Run(c.class.String()+"/"+name, func(t *testing.T) {
				img, obj := build(c.class, lib)
				s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", c.goarch), Bounds: bounds}

				addr, err := s.Find(obj, sdbm.Sum("foo"))
				require.NoError(t, err)
				assert.Equal(t, uint64(0x3000), addr)

				addr, err = s.Find(obj, sdbm.Sum("bar"))
				require.NoError(t, err)
				assert.Equal(t, uint64(0x2800), addr)

				_, err = s.Find(obj, sdbm.Sum("baz"))
				assert.ErrorIs(t, err, symscan.ErrSymbolNotFound)
			})
		}
	}
}

func TestFindSkipsUndefined(t *testing.T) {
	img, obj := build(elf.ELFCLASS64, elfmemtest.Object{Name: "libuser.so", Bias: 0x2000, Symbols: []elfmemtest.Symbol{
		{Name: "malloc", Value: 0x1234, Undefined: true},
		{Name: "user", Value: 0x10},
	}})
	s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "amd64")}

	_, err := s.Find(obj, sdbm.Sum("malloc"))
	assert.ErrorIs(t, err, symscan.ErrSymbolNotFound)

	var names []string
	require.NoError(t, s.Symbols(obj, func(sym symscan.Symbol) error {
		names = append(names, sym.Name)
		return nil
	}))
	assert.Equal(t, []string{"user"}, names)
}

func TestFindIfunc(t *testing.T) {
	lib := elfmemtest.Object{Name: "libc.so.6", Bias: 0x2000, Symbols: []elfmemtest.Symbol{
		{Name: "strlen", Value: 0x100, Ifunc: true},
	}}
	hash := sdbm.Sum("strlen")

	t.Run("resolver is called", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, lib)
		var called uint64
		s := symscan.Scanner{
			View:     img.View,
			Platform: platform(t, "linux", "amd64"),
			Ifunc: symscan.IfuncFunc(func(resolver uint64) (uint64, error) {
				called = resolver
				return 0x7000, nil
			}),
		}
		addr, err := s.Find(obj, hash)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2100), called)
		assert.Equal(t, uint64(0x7000), addr)
	})

	t.Run("no caller", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, lib)
		s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "amd64")}
		_, err := s.Find(obj, hash)
		assert.ErrorIs(t, err, elfmem.ErrUnsupportedPlatform)
	})

	t.Run("caller fails", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, lib)
		boom := errors.New("boom")
		s := symscan.Scanner{
			View:     img.View,
			Platform: platform(t, "linux", "amd64"),
			Ifunc:    symscan.IfuncFunc(func(uint64) (uint64, error) { return 0, boom }),
		}
		_, err := s.Find(obj, hash)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("platform without ifunc", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS32, lib)
		s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "arm")}
		addr, err := s.Find(obj, hash)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2100), addr)
	})
}

func TestAdjacentRequiresSymtabAfterStrtab(t *testing.T) {
	img, obj := build(elf.ELFCLASS64, elfmemtest.Object{
		Name:         "libodd.so",
		Bias:         0x2000,
		Symbols:      []elfmemtest.Symbol{{Name: "foo", Value: 0x1000}},
		DynamicOrder: []elf.DynTag{elf.DT_STRTAB, elf.DT_STRSZ, elf.DT_SYMTAB, elf.DT_SYMENT},
	})
	p := platform(t, "linux", "amd64")

	_, err := symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Adjacent{}}.Find(obj, sdbm.Sum("foo"))
	assert.ErrorIs(t, err, elfmem.ErrMalformedDynamicSection)

	addr, err := symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Safe{}}.Find(obj, sdbm.Sum("foo"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x3000), addr)
}

func TestSafeStopsAtVersym(t *testing.T) {
	img, obj := build(elf.ELFCLASS64, elfmemtest.Object{
		Name:    "libver.so",
		Bias:    0x2000,
		Symbols: []elfmemtest.Symbol{{Name: "bar", Value: 0x10}},
		Versym:  true,
		Decoys:  []elfmemtest.Symbol{{Name: "foo", Value: 0xbad}},
	})
	p := platform(t, "linux", "amd64")
	placed := img.Objects[1]

	adj, err := symscan.Adjacent{}.Locate(img.View, p, obj)
	require.NoError(t, err)
	assert.Equal(t, placed.Strtab, adj.End)

	safe, err := symscan.Safe{}.Locate(img.View, p, obj)
	require.NoError(t, err)
	assert.Equal(t, placed.Symtab, safe.Symtab)
	assert.Equal(t, placed.Strtab, safe.Strtab)
	assert.Equal(t, placed.VersymTab, safe.End)
	assert.Equal(t, uint64(2), safe.Len(img.View))

	addr, err := symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Adjacent{}}.Find(obj, sdbm.Sum("foo"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2bad), addr, "adjacent bounds read the versym block as symbols")

	_, err = symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Safe{}}.Find(obj, sdbm.Sum("foo"))
	assert.ErrorIs(t, err, symscan.ErrSymbolNotFound)
}

func TestHiddenVersionsAreSkipped(t *testing.T) {
	lib := elfmemtest.Object{
		Name: "libm.so.6",
		Bias: 0x2000,
		Symbols: []elfmemtest.Symbol{
			{Name: "log2f", Value: 0x100, Hidden: true},
			{Name: "powf", Value: 0x200, Hidden: true},
			{Name: "expf", Value: 0x300},
			{Name: "log2f", Value: 0x400},
			{Name: "sinf_compat", Value: 0x500, Hidden: true},
		},
		Versym:     true,
		VersymLast: true,
	}
	cases := []struct {
		class  elf.Class
		goarch string
	}{
		{elf.ELFCLASS64, "amd64"},
		{elf.ELFCLASS32, "386"},
	}
	for _, c := range cases {
		for name, bounds := range map[string]symscan.Bounds{"adjacent": symscan.Adjacent{}, "safe": symscan.Safe{}} {
			t.Run(c.class.String()+"/"+name, func(t *testing.T) {
				img, obj := build(c.class, lib)
				s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", c.goarch), Bounds: bounds}

				tab, err := bounds.Locate(img.View, s.Platform, obj)
				require.NoError(t, err)
				assert.Equal(t, img.Objects[1].VersymTab, tab.Versym)

				addr, err := s.Find(obj, sdbm.Sum("log2f"))
				require.NoError(t, err)
				assert.Equal(t, uint64(0x2400), addr, "default version wins over the earlier hidden one")

				_, err = s.Find(obj, sdbm.Sum("powf"))
				assert.ErrorIs(t, err, symscan.ErrSymbolNotFound)

				var names []string
				require.NoError(t, s.Symbols(obj, func(sym symscan.Symbol) error {
					names = append(names, sym.Name)
					return nil
				}))
				assert.Equal(t, []string{"expf", "log2f"}, names)
			})
		}
	}

	t.Run("versym between tables", func(t *testing.T) {
		between := lib
		between.VersymLast = false
		img, obj := build(elf.ELFCLASS64, between)
		s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "amd64"), Bounds: symscan.Safe{}}
		addr, err := s.Find(obj, sdbm.Sum("log2f"))
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2400), addr)
	})

	t.Run("no versym table", func(t *testing.T) {
		unversioned := lib
		unversioned.Versym = false
		img, obj := build(elf.ELFCLASS64, unversioned)
		addr, err := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "amd64")}.Find(obj, sdbm.Sum("log2f"))
		require.NoError(t, err)
		assert.Equal(t, uint64(0x2100), addr)
	})
}

func TestSafeUsesHashChainCount(t *testing.T) {
	lib := elfmemtest.Object{
		Name:    "libhash.so",
		Bias:    0x2000,
		Symbols: []elfmemtest.Symbol{{Name: "bar", Value: 0x10}},
		Decoys:  []elfmemtest.Symbol{{Name: "foo", Value: 0xbad}},
	}
	p := platform(t, "linux", "amd64")

	img, obj := build(elf.ELFCLASS64, lib)
	_, err := symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Safe{}}.Find(obj, sdbm.Sum("foo"))
	require.NoError(t, err, "without DT_HASH the string table is the only bound")

	lib.HashTable = true
	img, obj = build(elf.ELFCLASS64, lib)
	tab, err := symscan.Safe{}.Locate(img.View, p, obj)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tab.Len(img.View))
	_, err = symscan.Scanner{View: img.View, Platform: p, Bounds: symscan.Safe{}}.Find(obj, sdbm.Sum("foo"))
	assert.ErrorIs(t, err, symscan.ErrSymbolNotFound)
}

func TestRelativeDynamicPointers(t *testing.T) {
	lib := elfmemtest.Object{Name: "librel.so", Bias: 0x0c000000, Symbols: []elfmemtest.Symbol{{Name: "foo", Value: 0x1000}}}
	for _, goos := range []string{"linux", "freebsd"} {
		t.Run(goos, func(t *testing.T) {
			img := elfmemtest.New(elf.ELFCLASS64, elfmemtest.LinuxLayout).RelativeDynamic().Build(0x400000, exe, lib)
			obj := objectOf(img.Objects[1])
			for _, bounds := range []symscan.Bounds{symscan.Adjacent{}, symscan.Safe{}} {
				s := symscan.Scanner{View: img.View, Platform: platform(t, goos, "amd64"), Bounds: bounds}
				addr, err := s.Find(obj, sdbm.Sum("foo"))
				require.NoError(t, err)
				assert.Equal(t, uint64(0x0c001000), addr)
			}
		})
	}
}

func TestBrokenTables(t *testing.T) {
	p := platform(t, "linux", "amd64")
	lib := elfmemtest.Object{Name: "libbroken.so", Bias: 0x2000, Symbols: []elfmemtest.Symbol{{Name: "foo", Value: 0x1000}}}

	t.Run("symtab after strtab", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, lib)
		d, err := img.View.FindDynamic(obj.Dynamic, elf.DT_SYMTAB)
		require.NoError(t, err)
		img.PokeWord(d.Addr+img.View.WordSize(), img.Objects[1].Strtab+0x100)
		_, err = symscan.Adjacent{}.Locate(img.View, p, obj)
		assert.ErrorIs(t, err, elfmem.ErrMalformedDynamicSection)
	})

	t.Run("missing DT_SYMTAB", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, elfmemtest.Object{
			Name:         lib.Name,
			Bias:         lib.Bias,
			Symbols:      lib.Symbols,
			DynamicOrder: []elf.DynTag{elf.DT_STRTAB, elf.DT_STRSZ},
		})
		_, err := symscan.Safe{}.Locate(img.View, p, obj)
		assert.ErrorIs(t, err, elfmem.ErrMalformedDynamicSection)
	})

	t.Run("unterminated dynamic array", func(t *testing.T) {
		img, obj := build(elf.ELFCLASS64, lib)
		entries, err := img.View.DynamicEntries(obj.Dynamic)
		require.NoError(t, err)
		last := entries[len(entries)-1].Addr + img.View.DynSize()
		img.PokeWord(last, uint64(elf.DT_NEEDED))
		_, err = symscan.Scanner{View: img.View, Platform: p}.Find(obj, sdbm.Sum("foo"))
		assert.ErrorIs(t, err, elfmem.ErrMalformedDynamicSection)
	})
}

func TestSymbolsEnumeratesHashes(t *testing.T) {
	img, obj := build(elf.ELFCLASS64, elfmemtest.Object{Name: "libgl.so", Bias: 0x2000, Symbols: []elfmemtest.Symbol{
		{Name: "glClear", Value: 0x10},
		{Name: "glEnable", Value: 0x20},
		{Name: "glDisable", Value: 0x30, Ifunc: true},
	}})
	s := symscan.Scanner{View: img.View, Platform: platform(t, "linux", "amd64")}

	got := map[string]uint32{}
	require.NoError(t, s.Symbols(obj, func(sym symscan.Symbol) error {
		got[sym.Name] = sym.Hash
		if sym.Name == "glDisable" {
			assert.Equal(t, elfmem.STT_GNU_IFUNC, sym.Type)
		}
		return nil
	}))
	names := make([]string, 0, len(got))
	for name, h := range got {
		assert.Equal(t, sdbm.Sum(name), h)
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"glClear", "glDisable", "glEnable"}, names)
	assert.Equal(t, uint32(0x1fd92088), got["glClear"])

	stop := errors.New("stop")
	calls := 0
	err := s.Symbols(obj, func(symscan.Symbol) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
