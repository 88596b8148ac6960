package sdbm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sliverarmory/dnload/sdbm"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint32
	}{
		{name: "empty", in: "", want: 0},
		{name: "single byte", in: "A", want: 65},
		{name: "two bytes", in: "AB", want: 65*65599 + 66},
		{name: "malloc", in: "malloc", want: 0x03f31de8},
		{name: "free", in: "free", want: 0xc23f2ccc},
		{name: "glClear", in: "glClear", want: 0x1fd92088},
		{name: "stops at NUL", in: "free\x00junk", want: 0xc23f2ccc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sdbm.Sum(tt.in))
			assert.Equal(t, tt.want, sdbm.SumBytes([]byte(tt.in)))
		})
	}
}

func TestSumDeterministic(t *testing.T) {
	for _, name := range []string{"", "x", "SDL_GL_SwapWindow", "fftw_plan_r2r_1d"} {
		assert.Equal(t, sdbm.Sum(name), sdbm.Sum(name), name)
	}
}

func TestHash32MatchesSum(t *testing.T) {
	h := sdbm.New32()
	_, _ = h.Write([]byte("opus_"))
	_, _ = h.Write([]byte("decode_float"))
	assert.Equal(t, sdbm.Sum("opus_decode_float"), h.Sum32())
	assert.Equal(t, []byte{0x9c, 0x84, 0x19, 0x0b}, h.Sum(nil))

	h.Reset()
	assert.Equal(t, uint32(0), h.Sum32())
	assert.Equal(t, sdbm.Size, h.Size())
}

func TestUpdateIsIncremental(t *testing.T) {
	whole := sdbm.Update(0, []byte("glTexParameteri"))
	split := sdbm.Update(sdbm.Update(0, []byte("glTex")), []byte("Parameteri"))
	assert.Equal(t, whole, split)
	assert.Equal(t, uint32(0xdefef0c2), whole)
}
