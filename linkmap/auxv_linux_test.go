package linkmap_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/dnload/linkmap"
)

func TestSelfAuxvMatchesProc(t *testing.T) {
	p, err := linkmap.Current()
	if err != nil {
		t.Skip(err)
	}
	self, err := linkmap.SelfAuxv()
	require.NoError(t, err)
	assert.NotZero(t, self.Phdr)
	assert.NotZero(t, self.Phnum)

	proc, err := linkmap.ProcessAuxv(os.Getpid(), p)
	require.NoError(t, err)
	assert.Equal(t, self, proc)
}
