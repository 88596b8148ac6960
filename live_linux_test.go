//go:build cgo

package dnload_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/dnload"
	"github.com/sliverarmory/dnload/elfmem"
	"github.com/sliverarmory/dnload/internal/libm"
	"github.com/sliverarmory/dnload/linkmap"
)

func liveNames() []string {
	names := []string{"malloc", "free", "getpid"}
	if runtime.GOARCH == "amd64" {
		names = append(names, "strlen")
	}
	return names
}

func liveResolver(t *testing.T, opts ...dnload.Option) *dnload.Resolver {
	t.Helper()
	r, err := dnload.NewResolver(opts...)
	if err != nil {
		t.Skipf("process image not usable: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	if _, err := r.Objects(); err != nil {
		t.Skipf("link map not reachable: %v", err)
	}
	return r
}

func TestLiveMatchesDlsym(t *testing.T) {
	r := liveResolver(t)

	slots := make([]dnload.Slot, 0, len(liveNames()))
	for _, name := range liveNames() {
		slots = append(slots, dnload.SlotOf(name))
	}
	table := dnload.MustTable(slots...)

	byName, err := dnload.Bind(dnload.Direct{}, table)
	if err != nil {
		t.Skipf("dlsym unavailable: %v", err)
	}
	byHash, err := dnload.Bind(r, table)
	require.NoError(t, err)

	for i, s := range table.Slots() {
		assert.Equal(t, byName.Addr(i), byHash.Addr(i), s.Name)
	}
}

func TestLiveVersionedLibm(t *testing.T) {
	require.Equal(t, float32(3), libm.Log2f(8))
	require.Equal(t, float32(8), libm.Powf(2, 3))
	r := liveResolver(t)

	// glibc keeps compatibility versions of these ahead of the defaults.
	for _, name := range []string{"log2f", "powf", "expf", "exp2f"} {
		want, err := dnload.Direct{}.Bind(dnload.SlotOf(name))
		if err != nil {
			t.Skipf("dlsym unavailable: %v", err)
		}
		got, err := r.Bind(dnload.SlotOf(name))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestLiveProcessVM(t *testing.T) {
	auxv, err := linkmap.SelfAuxv()
	if err != nil {
		t.Skip(err)
	}
	r := liveResolver(t,
		dnload.WithMemory(elfmem.ProcessVM{Pid: os.Getpid()}),
		dnload.WithLocator(auxv),
	)

	want, err := dnload.Direct{}.Bind(dnload.SlotOf("getpid"))
	if err != nil {
		t.Skipf("dlsym unavailable: %v", err)
	}
	got, err := r.Bind(dnload.SlotOf("getpid"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadDefault(t *testing.T) {
	table := dnload.MustTable(dnload.SlotOf("free"))
	res, err := dnload.Load(table)
	if err != nil {
		t.Skipf("default binder cannot resolve free: %v", err)
	}
	again, err := dnload.Load(table)
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.NotZero(t, res.Addr(0))
}
