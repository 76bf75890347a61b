package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCreateAppendAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 10))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, uint64(1), f.Len())

	pos, err := f.Append(node(2, 20))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pos)

	got, err := f.GetByIndex(1)
	require.NoError(t, err)
	assert.Equal(t, node(2, 20), got)
}

func TestFileTruncateLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 1))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Append(node(2, 2))
	require.NoError(t, err)
	require.NoError(t, f.TruncateLast())
	assert.Equal(t, uint64(1), f.Len())

	root, err := f.Root()
	require.NoError(t, err)
	assert.Equal(t, node(1, 1), root)
}

func TestFileSealAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 1))
	require.NoError(t, err)
	_, err = f.Append(node(2, 2))
	require.NoError(t, err)
	_, err = f.Append(node(3, 3))
	require.NoError(t, err)
	require.NoError(t, f.Seal(3))
	require.NoError(t, f.Close())

	loaded, leafCount, err := LoadFile(path)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, uint64(3), leafCount)
	assert.Equal(t, uint64(3), loaded.Len())
	got, err := loaded.GetByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, node(3, 3), got)
}

func TestLoadFileRejectsCorruptedIntegrityHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 1))
	require.NoError(t, err)
	require.NoError(t, f.Seal(1))
	require.NoError(t, f.Close())

	corrupt, err := LoadFile(path)
	require.NoError(t, err)
	_, err = corrupt.f.WriteAt([]byte{0xFF}, HeaderSize)
	require.NoError(t, err)
	require.NoError(t, corrupt.Close())

	_, _, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadFileRejectsCorruptedLeafCountRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 1))
	require.NoError(t, err)
	require.NoError(t, f.Seal(1))
	require.NoError(t, f.Close())

	corrupt, err := LoadFile(path)
	require.NoError(t, err)
	_, err = corrupt.f.WriteAt([]byte{0xFF}, LeafCountOffset) // tamper the persisted leaf count, not the node region
	require.NoError(t, err)
	require.NoError(t, corrupt.Close())

	_, _, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadFileRejectsCorruptedReservedRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.dat")
	f, err := CreateFile(path, node(1, 1))
	require.NoError(t, err)
	require.NoError(t, f.Seal(1))
	require.NoError(t, f.Close())

	corrupt, err := LoadFile(path)
	require.NoError(t, err)
	_, err = corrupt.f.WriteAt([]byte{0xFF}, ReservedOffset)
	require.NoError(t, err)
	require.NoError(t, corrupt.Close())

	_, _, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrIntegrity)
}
