package mmr

import (
	"math/big"

	"github.com/flyclient-go/superlight/mmr/storage"
)

// Tree is the append-only weighted MMR. It owns no lock itself: callers
// must serialize access the way the single MMR-writer goroutine does (see
// the server package), since Tree.AppendLeaf is the only mutator and reads
// are not safe concurrently with it.
type Tree struct {
	store     storage.Store
	shape     []nodeShape
	peaks     []peakRef
	leafCount uint64
}

// NewTree opens a freshly created store (already seeded with one leaf by
// the caller, e.g. via storage.NewMemory or storage.CreateFile) and returns
// a Tree positioned at leafCount == 1.
func NewTree(store storage.Store) *Tree {
	t := &Tree{store: store}
	t.shape = append(t.shape, nodeShape{left: -1, right: -1, leafCount: 1})
	t.peaks = append(t.peaks, peakRef{pos: 0, leafCount: 1})
	t.leafCount = 1
	return t
}

// OpenTree rebuilds a Tree's in-memory shape and peak bookkeeping over a
// store that already holds leafCount leaves (loaded from disk, or restored
// from a Memory snapshot). It performs no hashing and no storage I/O: the
// shape of the tree is a pure function of leafCount.
func OpenTree(store storage.Store, leafCount uint64) (*Tree, error) {
	if leafCount == 0 {
		return nil, ErrEmptyTree
	}
	t := &Tree{store: store}
	peaks := []peakRef{{pos: 0, leafCount: 1}}
	shape := []nodeShape{{left: -1, right: -1, leafCount: 1}}
	for i := uint64(1); i < leafCount; i++ {
		appendLeafShape(&peaks, &shape)
	}
	t.peaks = peaks
	t.shape = shape
	t.leafCount = leafCount
	return t, nil
}

// AppendLeaf adds a new leaf to the tree, truncating and replacing the
// previous transient bagged root as needed to maintain the single-root
// invariant.
func (t *Tree) AppendLeaf(hash Hash, difficulty Difficulty) error {
	truncated, internalPairs := appendLeafShape(&t.peaks, &t.shape)

	for i := 0; i < truncated; i++ {
		if err := t.store.TruncateLast(); err != nil {
			return err
		}
	}

	if _, err := t.store.Append(Node{Hash: hash, Difficulty: difficulty}); err != nil {
		return err
	}

	for _, pair := range internalPairs {
		left, err := t.store.GetByIndex(uint64(pair[0]))
		if err != nil {
			return err
		}
		right, err := t.store.GetByIndex(uint64(pair[1]))
		if err != nil {
			return err
		}
		parent, err := Combine(left, right)
		if err != nil {
			return err
		}
		if _, err := t.store.Append(parent); err != nil {
			return err
		}
	}

	t.leafCount++
	return nil
}

// LeafCount returns the number of leaves appended so far.
func (t *Tree) LeafCount() uint64 {
	return t.leafCount
}

// RootPosition returns the storage position of the current root (always
// the last written node).
func (t *Tree) RootPosition() int64 {
	return int64(len(t.shape)) - 1
}

// root returns the current root node.
func (t *Tree) root() (Node, error) {
	return t.store.GetByIndex(uint64(t.RootPosition()))
}

// RootHash returns the current root hash.
func (t *Tree) RootHash() (Hash, error) {
	n, err := t.root()
	if err != nil {
		return Hash{}, err
	}
	return n.Hash, nil
}

// RootDifficulty returns the current root's aggregate difficulty, equal to
// the sum of every leaf's difficulty.
func (t *Tree) RootDifficulty() (Difficulty, error) {
	n, err := t.root()
	if err != nil {
		return Difficulty{}, err
	}
	return n.Difficulty, nil
}

// NodeAt returns the node stored at the given shape position.
func (t *Tree) NodeAt(pos int64) (Node, error) {
	return t.store.GetByIndex(uint64(pos))
}

// Children returns the left and right child positions of pos, and whether
// pos is a leaf (in which case left == right == -1 and the return value is
// false).
func (t *Tree) Children(pos int64) (left, right int64, isLeaf bool) {
	sh := t.shape[pos]
	if sh.left == -1 {
		return -1, -1, true
	}
	return sh.left, sh.right, false
}

// LeafCountAt returns how many leaves the subtree rooted at pos spans.
func (t *Tree) LeafCountAt(pos int64) uint64 {
	return t.shape[pos].leafCount
}

// LeftPrefixDifficulty returns the aggregate difficulty of leaves [0, k).
func (t *Tree) LeftPrefixDifficulty(k uint64) (Difficulty, error) {
	if k == 0 {
		return Difficulty{}, nil
	}
	if k > t.leafCount {
		return Difficulty{}, ErrEmptyTree
	}
	return t.leftPrefixAt(t.RootPosition(), 0, t.leafCount, k)
}

func (t *Tree) leftPrefixAt(pos int64, leafOffset, leafCount, k uint64) (Difficulty, error) {
	if k <= leafOffset {
		return Difficulty{}, nil
	}
	if k >= leafOffset+leafCount {
		n, err := t.NodeAt(pos)
		if err != nil {
			return Difficulty{}, err
		}
		return n.Difficulty, nil
	}
	leftPos, rightPos, isLeaf := t.Children(pos)
	if isLeaf {
		// k strictly inside a width-1 range cannot happen given the
		// boundary checks above.
		return Difficulty{}, nil
	}
	leftCount := t.LeafCountAt(leftPos)
	leftDiff, err := t.leftPrefixAt(leftPos, leafOffset, leftCount, k)
	if err != nil {
		return Difficulty{}, err
	}
	if k <= leafOffset+leftCount {
		return leftDiff, nil
	}
	leftNode, err := t.NodeAt(leftPos)
	if err != nil {
		return Difficulty{}, err
	}
	rightDiff, err := t.leftPrefixAt(rightPos, leafOffset+leftCount, leafCount-leftCount, k)
	if err != nil {
		return Difficulty{}, err
	}
	return leftNode.Difficulty.Add(rightDiff)
}

// LeafAtAggrWeight returns the leaf index i such that
// left_prefix_difficulty(i) <= w*total_difficulty < left_prefix_difficulty(i+1).
func (t *Tree) LeafAtAggrWeight(w float64) (uint64, error) {
	if w < 0 || w >= 1 {
		return 0, ErrInvalidWeight
	}
	total, err := t.RootDifficulty()
	if err != nil {
		return 0, err
	}
	target := new(big.Float).Mul(big.NewFloat(w), new(big.Float).SetInt(total.Big()))
	targetInt, _ := target.Int(nil)
	return t.leafAtWeightAt(t.RootPosition(), 0, t.leafCount, big.NewInt(0), targetInt)
}

func (t *Tree) leafAtWeightAt(pos int64, leafOffset, leafCount uint64, curLeft, target *big.Int) (uint64, error) {
	if leafCount == 1 {
		return leafOffset, nil
	}
	leftPos, rightPos, _ := t.Children(pos)
	leftCount := t.LeafCountAt(leftPos)
	leftNode, err := t.NodeAt(leftPos)
	if err != nil {
		return 0, err
	}
	boundary := new(big.Int).Add(curLeft, leftNode.Difficulty.Big())
	if target.Cmp(boundary) < 0 {
		return t.leafAtWeightAt(leftPos, leafOffset, leftCount, curLeft, target)
	}
	return t.leafAtWeightAt(rightPos, leafOffset+leftCount, leafCount-leftCount, boundary, target)
}
