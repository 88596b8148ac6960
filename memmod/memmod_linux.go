// Package memmod looks symbols up through the C library's own dlsym and
// calls native zero-argument functions such as IFUNC resolvers. The dl*
// entry points are found by reading the mapped libc from disk, so nothing
// links against libdl.
package memmod

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/sliverarmory/dnload/elfmem"
)

// rtldDefault is RTLD_DEFAULT: search the global scope in load order.
const rtldDefault = 0

type linuxDynAPI struct {
	dlsym   uintptr
	dlerror uintptr
	libc    string
	base    uintptr
}

var (
	linuxAPIOnce sync.Once
	linuxAPI     linuxDynAPI
	linuxAPIErr  error
)

// Lookup returns dlsym(RTLD_DEFAULT, name).
func Lookup(name string) (uintptr, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("memmod: symbol name cannot be empty")
	}
	api, err := getLinuxDynAPI()
	if err != nil {
		return 0, err
	}

	cName, err := cStringBytes(name)
	if err != nil {
		return 0, err
	}

	// clear stale dlerror
	_ = cCall0(api.dlerror)
	sym := cCall2(api.dlsym, rtldDefault, cStringPtr(cName))
	runtime.KeepAlive(cName)
	if err := lastDLError(api); err != nil {
		return 0, fmt.Errorf("memmod: dlsym(%s): %w", name, err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("memmod: dlsym(%s): symbol address is nil", name)
	}
	return sym, nil
}

// Call0 calls the native function at fn with no arguments and returns its
// result register. IFUNC resolvers are called this way.
func Call0(fn uintptr) (uintptr, error) {
	if !nativeCalls {
		return 0, errNoNativeCalls
	}
	if fn == 0 {
		return 0, errors.New("memmod: call of nil function")
	}
	return cCall0(fn), nil
}

// RuntimeLibc reports the C library mapping the dl* entry points came from
// and its load base.
func RuntimeLibc() (string, uintptr, error) {
	api, err := getLinuxDynAPI()
	if err != nil {
		return "", 0, err
	}
	return api.libc, api.base, nil
}

var errNoNativeCalls = fmt.Errorf("memmod: %w: native calls need cgo", elfmem.ErrUnsupportedPlatform)

func cStringBytes(s string) ([]byte, error) {
	if strings.ContainsRune(s, '\x00') {
		return nil, errors.New("memmod: string contains NUL")
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}

func cStringPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func cStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	const maxLen = 1 << 20
	buf := make([]byte, 0, 64)
	for i := 0; i < maxLen; i++ {
		ch := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if ch == 0 {
			return string(buf)
		}
		buf = append(buf, ch)
	}
	return string(buf)
}

func lastDLError(api *linuxDynAPI) error {
	msg := cStringFromPtr(cCall0(api.dlerror))
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

func getLinuxDynAPI() (*linuxDynAPI, error) {
	linuxAPIOnce.Do(func() {
		linuxAPIErr = initLinuxDynAPI()
	})
	if linuxAPIErr != nil {
		return nil, linuxAPIErr
	}
	return &linuxAPI, nil
}

func initLinuxDynAPI() error {
	if !nativeCalls {
		return errNoNativeCalls
	}
	entries, err := readProcMaps()
	if err != nil {
		return err
	}
	libs := rankLibraries(entries)
	if len(libs) == 0 {
		return errors.New("memmod: failed to locate runtime libc mapping")
	}

	var errs []error
	for _, lib := range libs {
		dlsymOff, err := findELFSymbolOffset(lib.path, "dlsym")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dlerrorOff, err := findELFSymbolOffset(lib.path, "dlerror")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		base := lib.start - lib.offset
		linuxAPI = linuxDynAPI{
			dlsym:   base + dlsymOff,
			dlerror: base + dlerrorOff,
			libc:    lib.path,
			base:    base,
		}
		return nil
	}
	return fmt.Errorf("memmod: resolve dlsym: %w", errors.Join(errs...))
}

type procMapEntry struct {
	start  uintptr
	offset uintptr
	perms  string
	path   string
}

// rankLibraries keeps executable mappings of C runtime libraries, best
// candidate first. Older glibc keeps dlsym in libdl rather than libc.
func rankLibraries(entries []procMapEntry) []procMapEntry {
	type scored struct {
		procMapEntry
		score int
	}
	var (
		out  []scored
		seen = make(map[string]bool)
	)
	for _, entry := range entries {
		score := libcPathScore(entry.path)
		if score < 0 || seen[entry.path] || entry.start < entry.offset {
			continue
		}
		seen[entry.path] = true
		out = append(out, scored{entry, score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })

	libs := make([]procMapEntry, len(out))
	for i, s := range out {
		libs[i] = s.procMapEntry
	}
	return libs
}

func libcPathScore(path string) int {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "libc.so"):
		return 100
	case strings.Contains(p, "libc-"):
		return 95
	case strings.Contains(p, "ld-musl"):
		return 90
	case strings.Contains(p, "musl"):
		return 85
	case strings.Contains(p, "libdl"):
		return 82
	case strings.Contains(p, "ld-linux"):
		return 80
	default:
		return -1
	}
}

func readProcMaps() ([]procMapEntry, error) {
	raw, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return nil, fmt.Errorf("memmod: read /proc/self/maps: %w", err)
	}
	return parseProcMaps(string(raw)), nil
}

// parseProcMaps keeps executable, file-backed mappings.
func parseProcMaps(raw string) []procMapEntry {
	lines := strings.Split(raw, "\n")
	entries := make([]procMapEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if !strings.Contains(fields[1], "x") {
			continue
		}

		rangeParts := strings.SplitN(fields[0], "-", 2)
		if len(rangeParts) != 2 {
			continue
		}
		start, startErr := parseHexUintptr(rangeParts[0])
		offset, offsetErr := parseHexUintptr(fields[2])
		if startErr != nil || offsetErr != nil {
			continue
		}

		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
			path = strings.TrimSuffix(path, " (deleted)")
		}
		if path == "" || !strings.HasPrefix(path, "/") {
			continue
		}

		entries = append(entries, procMapEntry{
			start:  start,
			offset: offset,
			perms:  fields[1],
			path:   path,
		})
	}
	return entries
}

func parseHexUintptr(s string) (uintptr, error) {
	v, err := strconv.ParseUint(s, 16, int(8*unsafe.Sizeof(uintptr(0))))
	if err != nil {
		return 0, err
	}
	return uintptr(v), nil
}

func findELFSymbolOffset(path string, symbol string) (uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	if syms, err := f.DynamicSymbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	if syms, err := f.Symbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	return 0, fmt.Errorf("symbol %s not found in %s", symbol, path)
}

func matchSymbolOffset(symbols []elf.Symbol, want string) (uintptr, bool) {
	for _, s := range symbols {
		if s.Value == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		if s.Name == want || strings.HasPrefix(s.Name, want+"@") {
			return uintptr(s.Value), true
		}
	}
	return 0, false
}
