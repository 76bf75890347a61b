// Package bloomfilter is a single-filter bloom filter adapted from a
// region-based, double-hashing bloom implementation: the same
// domain-separated sha256 double-hash (h1, h2) with bit indices
// j = (h1 + i*h2) % mBits, LSB-first within each byte, but holding one set
// of uint64 keys rather than a fixed multi-filter region. The bitset is
// sized once, at construction, and does not grow as keys are added.
package bloomfilter

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
)

const filterDomain = 0xB1

// ErrBadBitsPerElement is returned when BitsPerElement would size an empty
// or unreasonably large bitset.
var ErrBadBitsPerElement = errors.New("bloomfilter: bits-per-element must be in (0, 1<<20]")

// Filter is a bloom filter over uint64 keys (here, block numbers).
type Filter struct {
	bitset []byte
	mBits  uint64
	k      uint8
	n      uint64
}

// New creates a filter sized for expectedN elements at bitsPerElement bits
// each, with k hash rounds. A conventional choice is bitsPerElement=10,
// k=7, giving roughly a 1% false-positive rate.
func New(expectedN uint64, bitsPerElement uint64, k uint8) (*Filter, error) {
	if bitsPerElement == 0 || bitsPerElement > 1<<20 {
		return nil, ErrBadBitsPerElement
	}
	if expectedN == 0 {
		expectedN = 1
	}
	mBits := bitsPerElement * expectedN
	bitsetBytes := (mBits + 7) / 8
	return &Filter{
		bitset: make([]byte, bitsetBytes),
		mBits:  mBits,
		k:      k,
	}, nil
}

// Add inserts a key into the filter.
func (f *Filter) Add(key uint64) {
	h1, h2 := f.hashPair(key)
	for i := uint64(0); i < uint64(f.k); i++ {
		j := (h1 + i*h2) % f.mBits
		f.bitset[j>>3] |= 1 << (j & 7)
	}
	f.n++
}

// MayContain reports whether key might have been added. false means
// definitely not present; true means possibly present, and the caller must
// confirm against the authoritative source.
func (f *Filter) MayContain(key uint64) bool {
	h1, h2 := f.hashPair(key)
	for i := uint64(0); i < uint64(f.k); i++ {
		j := (h1 + i*h2) % f.mBits
		if f.bitset[j>>3]&(1<<(j&7)) == 0 {
			return false
		}
	}
	return true
}

// Len returns the number of elements inserted so far.
func (f *Filter) Len() uint64 { return f.n }

func (f *Filter) hashPair(key uint64) (h1, h2 uint64) {
	var buf [1 + 8]byte
	buf[0] = filterDomain
	binary.BigEndian.PutUint64(buf[1:], key)
	sum := sha256.Sum256(buf[:])
	h1 = binary.BigEndian.Uint64(sum[0:8])
	h2 = binary.BigEndian.Uint64(sum[8:16])
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}
