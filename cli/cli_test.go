package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/dnload"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		// A slice flag appends once set; start the next run empty.
		if v, ok := checkCmd.Flags().Lookup("names").Value.(pflag.SliceValue); ok {
			_ = v.Replace(nil)
		}
		compareDirect = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashCommand(t *testing.T) {
	out, err := execute(t, "hash", "free", "glClear")
	require.NoError(t, err)
	assert.Equal(t, "0xc23f2ccc free\n0x1fd92088 glClear\n", out)
}

func TestHashCommandNeedsName(t *testing.T) {
	_, err := execute(t, "hash")
	assert.Error(t, err)
}

func TestTableCommand(t *testing.T) {
	out, err := execute(t, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "0x1fd92088  glClear")
	assert.Contains(t, out, "opus_decode_float")
	assert.NotContains(t, out, "MISMATCH")
}

func TestEnumValue(t *testing.T) {
	e := newEnum("safe", "safe", "adjacent")
	assert.Equal(t, "safe", e.String())
	require.NoError(t, e.Set("adjacent"))
	assert.Equal(t, "adjacent", e.String())

	err := e.Set("loose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "safe|adjacent")
	assert.Equal(t, "adjacent", e.String())
}

func TestCollisions(t *testing.T) {
	table := dnload.MustTable(dnload.SlotOf("free"), dnload.SlotOf("malloc"))
	free := table.Slot(0).Hash
	malloc := table.Slot(1).Hash

	c := newCollisions(table)
	c.add("libevil.so", "notfree", free)
	c.add("libc.so.6", "free", free)
	c.add("libc.so.6", "malloc", malloc)
	c.add("libz.so", "notmalloc", malloc)
	c.add("libz.so", "inflate", 0x1234)

	assert.Equal(t, 5, c.seen)
	require.Len(t, c.found, 2)
	assert.Equal(t, collision{hash: free, name: "notfree", want: "free", object: "libevil.so", shadows: true}, c.found[0])
	assert.Equal(t, collision{hash: malloc, name: "notmalloc", want: "malloc", object: "libz.so"}, c.found[1])
}

func TestCheckCommandOnFile(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	out, err := execute(t, "check", "--names", "dnload_check_unused", exe)
	require.NoError(t, err, out)
	assert.Contains(t, out, "no collisions in")
}

func TestCheckCommandRejectsNonELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notelf")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	_, err := execute(t, "check", path)
	assert.Error(t, err)
}
