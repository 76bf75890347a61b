package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyclient-go/superlight/mmr"
)

func node(b byte, diff uint64) mmr.Node {
	n := mmr.Node{Difficulty: mmr.DifficultyFromUint64(diff)}
	n.Hash[0] = b
	return n
}

func TestMemoryAppendAndGet(t *testing.T) {
	m := NewMemory(node(1, 10))
	assert.Equal(t, uint64(1), m.Len())

	pos, err := m.Append(node(2, 20))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pos)
	assert.Equal(t, uint64(2), m.Len())

	got, err := m.GetByIndex(0)
	require.NoError(t, err)
	assert.Equal(t, node(1, 10), got)

	got, err = m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, node(2, 20), got)

	_, err = m.GetByIndex(2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMemoryTruncateLast(t *testing.T) {
	m := NewMemory(node(1, 1))
	_, err := m.Append(node(2, 1))
	require.NoError(t, err)

	require.NoError(t, m.TruncateLast())
	assert.Equal(t, uint64(1), m.Len())

	root, err := m.Root()
	require.NoError(t, err)
	assert.Equal(t, node(1, 1), root)

	require.NoError(t, m.TruncateLast())
	assert.Equal(t, uint64(0), m.Len())
	_, err = m.Root()
	assert.ErrorIs(t, err, ErrEmpty)

	err = m.TruncateLast()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestMemorySealAndLoadRoundTrip(t *testing.T) {
	m := NewMemory(node(1, 1))
	_, _ = m.Append(node(2, 2))
	_, _ = m.Append(node(3, 3))

	require.NoError(t, m.Seal(3))
	snap := m.Snapshot()

	loaded, leafCount, err := LoadMemory(snap)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), leafCount)
	assert.Equal(t, uint64(3), loaded.LeafCount())
	assert.Equal(t, uint64(3), loaded.Len())

	got, err := loaded.GetByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, node(3, 3), got)
}

func TestLoadMemoryRejectsCorruptedIntegrityHash(t *testing.T) {
	m := NewMemory(node(1, 1))
	require.NoError(t, m.Seal(1))
	snap := m.Snapshot()
	snap[HeaderSize] ^= 0xFF // corrupt the single stored node

	_, _, err := LoadMemory(snap)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadMemoryRejectsCorruptedLeafCountRegion(t *testing.T) {
	m := NewMemory(node(1, 1))
	require.NoError(t, m.Seal(1))
	snap := m.Snapshot()
	snap[LeafCountOffset] ^= 0xFF // corrupt the persisted leaf count, not the node region

	_, _, err := LoadMemory(snap)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadMemoryRejectsCorruptedReservedRegion(t *testing.T) {
	m := NewMemory(node(1, 1))
	require.NoError(t, m.Seal(1))
	snap := m.Snapshot()
	snap[ReservedOffset] ^= 0xFF // corrupt the reserved header bytes

	_, _, err := LoadMemory(snap)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadMemoryRejectsTruncatedBuffer(t *testing.T) {
	_, _, err := LoadMemory(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrIntegrity)
}
