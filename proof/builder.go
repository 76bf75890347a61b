package proof

import (
	"sort"

	"github.com/flyclient-go/superlight/mmr"
)

// Build generates a multi-leaf inclusion proof against the given tree's
// current snapshot for the given block numbers (deduplicated and sorted
// internally).
func Build(tree *mmr.Tree, leafIndices []uint64) (*Proof, error) {
	queries := dedupSorted(leafIndices)

	rootHash, err := tree.RootHash()
	if err != nil {
		return nil, err
	}
	rootDifficulty, err := tree.RootDifficulty()
	if err != nil {
		return nil, err
	}
	leafCount := tree.LeafCount()

	var elems []Element
	if err := descend(tree, tree.RootPosition(), 0, leafCount, queries, &elems); err != nil {
		return nil, err
	}
	elems = append(elems, Root{Hash: rootHash, Difficulty: rootDifficulty, LeafCount: leafCount})

	return &Proof{
		RootHash:       rootHash,
		RootDifficulty: rootDifficulty,
		LeafCount:      leafCount,
		Elements:       elems,
	}, nil
}

func dedupSorted(in []uint64) []uint64 {
	cp := append([]uint64(nil), in...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:0]
	var last uint64
	haveLast := false
	for _, v := range cp {
		if haveLast && v == last {
			continue
		}
		out = append(out, v)
		last = v
		haveLast = true
	}
	return out
}

func descend(tree *mmr.Tree, pos int64, leafOffset, leafCount uint64, queries []uint64, elems *[]Element) error {
	if leafCount == 1 {
		n, err := tree.NodeAt(pos)
		if err != nil {
			return err
		}
		*elems = append(*elems, Child{Hash: n.Hash, Difficulty: n.Difficulty})
		return nil
	}

	leftPos, rightPos, _ := tree.Children(pos)
	leftCount := tree.LeafCountAt(leftPos)
	boundary := leafOffset + leftCount

	split := sort.Search(len(queries), func(i int) bool { return queries[i] >= boundary })
	leftQueries, rightQueries := queries[:split], queries[split:]

	if len(leftQueries) == 0 {
		n, err := tree.NodeAt(leftPos)
		if err != nil {
			return err
		}
		*elems = append(*elems, Node{Hash: n.Hash, Difficulty: n.Difficulty, Direction: DirLeft})
	} else if err := descend(tree, leftPos, leafOffset, leftCount, leftQueries, elems); err != nil {
		return err
	}

	if len(rightQueries) == 0 {
		n, err := tree.NodeAt(rightPos)
		if err != nil {
			return err
		}
		*elems = append(*elems, Node{Hash: n.Hash, Difficulty: n.Difficulty, Direction: DirRight})
	} else if err := descend(tree, rightPos, boundary, leafCount-leftCount, rightQueries, elems); err != nil {
		return err
	}

	return nil
}
