package storage

import (
	"encoding/binary"

	"github.com/flyclient-go/superlight/mmr"
	"golang.org/x/crypto/sha3"
)

// Memory is a contiguous in-memory store. It shadows the same byte layout a
// file-backed store would use, so Snapshot and LoadMemory round-trip through
// the identical header/leafCount/nodes encoding.
type Memory struct {
	buf       []byte
	leafCount uint64
}

// NewMemory opens a new Memory store seeded with a single leaf.
func NewMemory(leaf mmr.Node) *Memory {
	m := &Memory{buf: make([]byte, HeaderSize)}
	_, _ = m.Append(leaf)
	m.leafCount = 1
	return m
}

// LoadMemory reconstructs a Memory store from a previously sealed byte
// buffer, verifying its integrity hash.
func LoadMemory(data []byte) (*Memory, uint64, error) {
	if len(data) < HeaderSize {
		return nil, 0, ErrIntegrity
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	want := buf[IntegrityHashOffset : IntegrityHashOffset+32]
	got := sha3.Sum256(buf[IntegrityHashOffset+32:])
	if string(want) != string(got[:]) {
		return nil, 0, ErrIntegrity
	}
	leafCount := binary.BigEndian.Uint64(buf[LeafCountOffset : LeafCountOffset+8])
	return &Memory{buf: buf, leafCount: leafCount}, leafCount, nil
}

func (m *Memory) Append(node mmr.Node) (uint64, error) {
	pos := m.Len()
	enc := node.Serialize()
	m.buf = append(m.buf, enc[:]...)
	return pos, nil
}

func (m *Memory) Get(position uint64) (mmr.Node, error) {
	return m.GetByIndex(position)
}

func (m *Memory) GetByIndex(i uint64) (mmr.Node, error) {
	off := HeaderSize + i*mmr.NodeSize
	if i >= m.Len() {
		return mmr.Node{}, ErrOutOfRange
	}
	return mmr.NodeFromBytes(m.buf[off : off+mmr.NodeSize])
}

func (m *Memory) TruncateLast() error {
	if m.Len() == 0 {
		return ErrEmpty
	}
	m.buf = m.buf[:len(m.buf)-mmr.NodeSize]
	return nil
}

func (m *Memory) Root() (mmr.Node, error) {
	if m.Len() == 0 {
		return mmr.Node{}, ErrEmpty
	}
	return m.GetByIndex(m.Len() - 1)
}

func (m *Memory) Len() uint64 {
	return uint64(len(m.buf)-HeaderSize) / mmr.NodeSize
}

func (m *Memory) Seal(leafCount uint64) error {
	m.leafCount = leafCount
	binary.BigEndian.PutUint64(m.buf[LeafCountOffset:LeafCountOffset+8], leafCount)
	sum := sha3.Sum256(m.buf[IntegrityHashOffset+32:])
	copy(m.buf[IntegrityHashOffset:IntegrityHashOffset+32], sum[:])
	return nil
}

// Snapshot returns a read-only copy of the sealed byte buffer, cheap because
// the store is value-typed bytes. Callers should Seal before snapshotting to
// obtain a buffer that verifies with LoadMemory.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out
}

// LeafCount returns the leaf count most recently passed to Seal, the one
// loaded from a sealed buffer, or 1 for a store fresh from NewMemory.
func (m *Memory) LeafCount() uint64 {
	return m.leafCount
}

var _ Store = (*Memory)(nil)
