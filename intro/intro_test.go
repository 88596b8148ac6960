package intro_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/dnload/intro"
	"github.com/sliverarmory/dnload/sdbm"
)

func TestTableHashes(t *testing.T) {
	slots := intro.Slots()
	require.Len(t, slots, 107)
	for i, s := range slots {
		assert.Equal(t, sdbm.Sum(s.Name), s.Hash, "slot %d (%s)", i, s.Name)
		assert.NotEmpty(t, s.Signature, "slot %d (%s)", i, s.Name)
	}
}

func TestTableIsValid(t *testing.T) {
	table := intro.Table()
	require.NotNil(t, table)
	assert.Equal(t, 107, table.Len())
	assert.Same(t, table, intro.Table())
	assert.Equal(t, uint64(107), table.Hashes().GetCardinality())
}

func TestTableOrder(t *testing.T) {
	table := intro.Table()
	tests := []struct {
		index int
		name  string
		hash  uint32
	}{
		{0, "glGenerateMipmap", 0x11741122},
		{12, "glClear", 0x1fd92088},
		{67, "opus_decode_float", 0x9c84190b},
		{79, "free", 0xc23f2ccc},
		{106, "glEnable", 0xf1854d68},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := table.Slot(tt.index)
			assert.Equal(t, tt.name, s.Name)
			assert.Equal(t, tt.hash, s.Hash)
			i, ok := table.Index(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.index, i)
		})
	}
}
