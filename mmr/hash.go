// Package mmr implements the difficulty-weighted Merkle Mountain Range: an
// append-only tree that maintains a single root after every append, unlike a
// classical MMR of un-bagged peaks.
package mmr

import (
	"encoding/binary"
	"errors"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// NodeSize is the on-disk and on-wire size of one MMR node: a 32-byte hash
// followed by a 16-byte big-endian difficulty.
const NodeSize = 48

// HashSize is the size of a Hash in bytes.
const HashSize = 32

// DifficultySize is the size of a Difficulty in bytes.
const DifficultySize = 16

// Hash is an opaque 32-byte digest: a block hash for leaves, or
// sha3-256(serialize(left) || serialize(right)) for internal nodes.
type Hash [HashSize]byte

// Difficulty is an unsigned 128-bit integer stored big-endian.
type Difficulty [DifficultySize]byte

// ErrOverflow is returned when a difficulty sum would exceed 2^128.
var ErrOverflow = errors.New("mmr: difficulty sum overflows 128 bits")

var maxDifficulty = func() *big.Int {
	one := big.NewInt(1)
	max := new(big.Int).Lsh(one, 128)
	return max
}()

// Big returns the difficulty as a big.Int.
func (d Difficulty) Big() *big.Int {
	return new(big.Int).SetBytes(d[:])
}

// DifficultyFromBig converts a big.Int in [0, 2^128) into a Difficulty,
// returning ErrOverflow if it does not fit.
func DifficultyFromBig(v *big.Int) (Difficulty, error) {
	var d Difficulty
	if v.Sign() < 0 || v.Cmp(maxDifficulty) >= 0 {
		return d, ErrOverflow
	}
	b := v.Bytes()
	copy(d[DifficultySize-len(b):], b)
	return d, nil
}

// DifficultyFromUint64 builds a Difficulty from a uint64 value.
func DifficultyFromUint64(v uint64) Difficulty {
	var d Difficulty
	binary.BigEndian.PutUint64(d[8:], v)
	return d
}

// Add returns d+other, failing with ErrOverflow if the sum exceeds 2^128-1.
func (d Difficulty) Add(other Difficulty) (Difficulty, error) {
	sum := new(big.Int).Add(d.Big(), other.Big())
	return DifficultyFromBig(sum)
}

// ErrUnderflow is returned by Sub when the subtrahend exceeds the minuend.
var ErrUnderflow = errors.New("mmr: difficulty subtraction underflows")

// Sub returns d-other, failing with ErrUnderflow if other > d.
func (d Difficulty) Sub(other Difficulty) (Difficulty, error) {
	diff := new(big.Int).Sub(d.Big(), other.Big())
	if diff.Sign() < 0 {
		return Difficulty{}, ErrUnderflow
	}
	return DifficultyFromBig(diff)
}

// Node is the atomic 48-byte MMR record.
type Node struct {
	Hash       Hash
	Difficulty Difficulty
}

// Serialize writes the node's canonical 48-byte encoding.
func (n Node) Serialize() [NodeSize]byte {
	var buf [NodeSize]byte
	copy(buf[:HashSize], n.Hash[:])
	copy(buf[HashSize:], n.Difficulty[:])
	return buf
}

// NodeFromBytes parses a 48-byte slice into a Node.
func NodeFromBytes(b []byte) (Node, error) {
	var n Node
	if len(b) != NodeSize {
		return n, errors.New("mmr: node must be exactly 48 bytes")
	}
	copy(n.Hash[:], b[:HashSize])
	copy(n.Difficulty[:], b[HashSize:])
	return n, nil
}

// HashChildren computes the parent hash of two sibling nodes: a plain
// sha3-256 over their concatenated 48-byte serializations, with no
// position-dependent salt.
func HashChildren(left, right Node) Hash {
	lb := left.Serialize()
	rb := right.Serialize()
	h := sha3.New256()
	h.Write(lb[:])
	h.Write(rb[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Combine builds the parent node of two siblings: hash per HashChildren,
// difficulty is the exact sum (ErrOverflow on 128-bit overflow).
func Combine(left, right Node) (Node, error) {
	d, err := left.Difficulty.Add(right.Difficulty)
	if err != nil {
		return Node{}, err
	}
	return Node{Hash: HashChildren(left, right), Difficulty: d}, nil
}
