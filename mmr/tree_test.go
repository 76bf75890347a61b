package mmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyclient-go/superlight/mmr/storage"
)

// buildUniformTree appends n leaves, each with difficulty 1 and a distinct
// hash, so left-prefix difficulty at leaf i is simply i.
func buildUniformTree(t *testing.T, n uint64) *Tree {
	t.Helper()
	require.Greater(t, n, uint64(0))

	var genesis Hash
	genesis[0] = 0
	store := storage.NewMemory(Node{Hash: genesis, Difficulty: DifficultyFromUint64(1)})
	tree := NewTree(store)

	for i := uint64(1); i < n; i++ {
		var h Hash
		h[0] = byte(i)
		h[1] = byte(i >> 8)
		require.NoError(t, tree.AppendLeaf(h, DifficultyFromUint64(1)))
	}
	return tree
}

func TestAppendLeafGrowsLeafCount(t *testing.T) {
	for _, n := range []uint64{1, 2, 3, 4, 5, 7, 8, 16, 17} {
		tree := buildUniformTree(t, n)
		assert.Equal(t, n, tree.LeafCount())

		total, err := tree.RootDifficulty()
		require.NoError(t, err)
		assert.Equal(t, n, total.Big().Uint64())
	}
}

func TestOpenTreeMatchesLiveShape(t *testing.T) {
	for _, n := range []uint64{1, 2, 3, 6, 9, 16} {
		live := buildUniformTree(t, n)

		reopened, err := OpenTree(live.store, n)
		require.NoError(t, err)

		liveHash, err := live.RootHash()
		require.NoError(t, err)
		reopenHash, err := reopened.RootHash()
		require.NoError(t, err)
		assert.Equal(t, liveHash, reopenHash)
		assert.Equal(t, live.RootPosition(), reopened.RootPosition())
		assert.Equal(t, live.shape, reopened.shape)
	}
}

func TestOpenTreeRejectsEmpty(t *testing.T) {
	store := storage.NewMemory(Node{})
	_, err := OpenTree(store, 0)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestLeftPrefixDifficultyUniform(t *testing.T) {
	tree := buildUniformTree(t, 10)
	for k := uint64(0); k <= 10; k++ {
		d, err := tree.LeftPrefixDifficulty(k)
		require.NoError(t, err)
		assert.Equal(t, k, d.Big().Uint64(), "prefix of %d leaves", k)
	}
}

func TestLeftPrefixDifficultyRejectsOutOfRange(t *testing.T) {
	tree := buildUniformTree(t, 4)
	_, err := tree.LeftPrefixDifficulty(5)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestLeafAtAggrWeightUniform(t *testing.T) {
	tree := buildUniformTree(t, 8)
	tests := []struct {
		w    float64
		want uint64
	}{
		{0, 0},
		{0.01, 0},
		{0.124, 0},
		{0.126, 1},
		{0.5, 4},
		{0.99, 7},
	}
	for _, test := range tests {
		got, err := tree.LeafAtAggrWeight(test.w)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, "weight %v", test.w)
	}
}

func TestLeafAtAggrWeightRejectsOutOfRange(t *testing.T) {
	tree := buildUniformTree(t, 4)
	_, err := tree.LeafAtAggrWeight(1)
	assert.ErrorIs(t, err, ErrInvalidWeight)
	_, err = tree.LeafAtAggrWeight(-0.1)
	assert.ErrorIs(t, err, ErrInvalidWeight)
}

func TestChildrenReportsLeafVsInternal(t *testing.T) {
	tree := buildUniformTree(t, 4)
	_, _, isLeaf := tree.Children(0)
	assert.True(t, isLeaf)

	_, _, isLeaf = tree.Children(tree.RootPosition())
	assert.False(t, isLeaf)
}
