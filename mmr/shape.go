package mmr

// peakRef names a currently-open peak: a complete, permanent, power-of-two
// subtree that will never be touched again once a larger peak swallows it.
type peakRef struct {
	pos       uint64
	leafCount uint64
}

// nodeShape records, for one storage position, which two storage positions
// are its children (-1, -1 for a leaf) and how many leaves its subtree
// spans. It is derived purely from the append sequence's combinatorics and
// is never itself persisted; OpenTree rebuilds it from leafCount alone.
type nodeShape struct {
	left, right int64
	leafCount   uint64
}

// appendLeafShape performs the structural bookkeeping for one append,
// mutating peaks and shape in place.
//
// It returns truncated, the number of trailing entries that must first be
// removed from storage (the previous append's transient bagged root and its
// intermediate folds, if the tree was not a perfect power of two), and
// internalPairs, the child position pairs of every new internal node that
// must be created, in the order they must be combined: backfill merges
// (permanent peaks) first, then any final right-to-left bagging fold
// (transient, superseded by the next append).
func appendLeafShape(peaks *[]peakRef, shape *[]nodeShape) (truncated int, internalPairs [][2]int64) {
	if len(*peaks) > 1 {
		truncated = len(*peaks) - 1
		*shape = (*shape)[:len(*shape)-truncated]
	}

	leafPos := int64(len(*shape))
	*shape = append(*shape, nodeShape{left: -1, right: -1, leafCount: 1})
	*peaks = append(*peaks, peakRef{pos: uint64(leafPos), leafCount: 1})

	for len(*peaks) >= 2 {
		a := (*peaks)[len(*peaks)-2]
		b := (*peaks)[len(*peaks)-1]
		if a.leafCount != b.leafCount {
			break
		}
		pos := int64(len(*shape))
		*shape = append(*shape, nodeShape{left: int64(a.pos), right: int64(b.pos), leafCount: a.leafCount + b.leafCount})
		internalPairs = append(internalPairs, [2]int64{int64(a.pos), int64(b.pos)})
		*peaks = (*peaks)[:len(*peaks)-2]
		*peaks = append(*peaks, peakRef{pos: uint64(pos), leafCount: a.leafCount + b.leafCount})
	}

	if len(*peaks) > 1 {
		acc := (*peaks)[len(*peaks)-1]
		for i := len(*peaks) - 2; i >= 0; i-- {
			left := (*peaks)[i]
			pos := int64(len(*shape))
			*shape = append(*shape, nodeShape{left: int64(left.pos), right: int64(acc.pos), leafCount: left.leafCount + acc.leafCount})
			internalPairs = append(internalPairs, [2]int64{int64(left.pos), int64(acc.pos)})
			acc = peakRef{pos: uint64(pos), leafCount: left.leafCount + acc.leafCount}
		}
	}

	return truncated, internalPairs
}
