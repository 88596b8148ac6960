// Package sdbm implements the SDBM string hash used to name imported
// symbols. The multiplier and accumulation order are fixed: import tables
// embed precomputed values and any deviation silently breaks resolution.
package sdbm

import "hash"

// Multiplier is the SDBM constant, 65599.
const Multiplier = 65599

// Size of an SDBM checksum in bytes.
const Size = 4

// Sum hashes name up to, not including, its first NUL byte.
func Sum(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == 0 {
			break
		}
		h = h*Multiplier + uint32(c)
	}
	return h
}

// SumBytes is Sum for byte slices.
func SumBytes(name []byte) uint32 {
	var h uint32
	for _, c := range name {
		if c == 0 {
			break
		}
		h = h*Multiplier + uint32(c)
	}
	return h
}

// Update folds p into h. Unlike Sum it does not stop at NUL; callers that
// stream C strings cut the terminator themselves.
func Update(h uint32, p []byte) uint32 {
	for _, c := range p {
		h = h*Multiplier + uint32(c)
	}
	return h
}

type digest uint32

// New32 returns a hash.Hash32 computing the SDBM hash of everything written.
func New32() hash.Hash32 {
	var d digest
	return &d
}

func (d *digest) Write(p []byte) (int, error) {
	*d = digest(Update(uint32(*d), p))
	return len(p), nil
}

func (d *digest) Sum32() uint32 { return uint32(*d) }

func (d *digest) Sum(in []byte) []byte {
	s := uint32(*d)
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (d *digest) Reset() { *d = 0 }

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return 1 }
