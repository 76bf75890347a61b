package proof

import (
	"math/big"
	"sort"

	"github.com/flyclient-go/superlight/mmr"
)

type stackEntry struct {
	hash       mmr.Hash
	difficulty mmr.Difficulty
	index      *uint64
	layerSize  *uint64
}

func u64p(v uint64) *uint64 { return &v }

// Verify replays a Proof's element sequence bottom-up against the supplied
// ProofBlocks (sampled query leaves, with or without an aggregate-weight
// witness, plus any epoch-anchor extras with no witness), reconstructing
// the root hash and difficulty and checking every weight witness along the
// way. A single-leaf proof is only checked by comparing the leaf hash with
// the root hash; no weight witness is checked for it.
func Verify(p *Proof, blocks []ProofBlock) error {
	if len(p.Elements) == 0 {
		return ErrEmptyProof
	}
	root, ok := p.Elements[len(p.Elements)-1].(Root)
	if !ok {
		return ErrMissingRoot
	}
	elements := p.Elements[:len(p.Elements)-1]

	sortedBlocks := append([]ProofBlock(nil), blocks...)
	sort.Slice(sortedBlocks, func(i, j int) bool { return sortedBlocks[i].BlockNumber < sortedBlocks[j].BlockNumber })
	dedup := sortedBlocks[:0]
	var lastNum uint64
	haveLast := false
	for _, b := range sortedBlocks {
		if haveLast && b.BlockNumber == lastNum {
			continue
		}
		dedup = append(dedup, b)
		lastNum = b.BlockNumber
		haveLast = true
	}
	sortedBlocks = dedup

	// Single-element edge case: n == 1, the only element is the leaf.
	if len(elements) == 1 {
		child, ok := elements[0].(Child)
		if !ok {
			return ErrMalformedElement
		}
		if child.Hash != root.Hash {
			return ErrHashMismatch
		}
		return nil
	}

	var nodes []stackEntry
	blockIdx := 0
	elemIdx := 0

	popBlock := func() (ProofBlock, bool) {
		if blockIdx >= len(sortedBlocks) {
			return ProofBlock{}, false
		}
		b := sortedBlocks[blockIdx]
		blockIdx++
		return b, true
	}

	for elemIdx < len(elements) {
		el := elements[elemIdx]
		elemIdx++

		switch e := el.(type) {
		case Child:
			block, ok := popBlock()
			if !ok {
				return ErrMalformedElement
			}
			number := block.BlockNumber

			// With an empty stack nothing lies to the left of this leaf, so
			// its left prefix is zero.
			var leftDiff mmr.Difficulty
			if len(nodes) > 0 {
				var err error
				_, leftDiff, err = bagged(nodes)
				if err != nil {
					return err
				}
			}
			if block.AggrWeightSet {
				if err := checkWitness(leftDiff, e.Difficulty, block.AggrWeight, root.Difficulty); err != nil {
					return err
				}
			}

			if number%2 == 0 && number != p.LeafCount-1 {
				if elemIdx >= len(elements) {
					return ErrMalformedElement
				}
				rightEl := elements[elemIdx]
				elemIdx++
				var rightHash mmr.Hash
				var rightDiff mmr.Difficulty
				switch r := rightEl.(type) {
				case Child:
					if _, ok := popBlock(); !ok {
						return ErrMalformedElement
					}
					rightHash, rightDiff = r.Hash, r.Difficulty
				case Node:
					rightHash, rightDiff = r.Hash, r.Difficulty
				default:
					return ErrMalformedElement
				}
				parent, err := mmr.Combine(
					mmr.Node{Hash: e.Hash, Difficulty: e.Difficulty},
					mmr.Node{Hash: rightHash, Difficulty: rightDiff},
				)
				if err != nil {
					return err
				}
				nodes = append(nodes, stackEntry{
					hash: parent.Hash, difficulty: parent.Difficulty,
					index: u64p(number / 2), layerSize: u64p(p.LeafCount / 2),
				})
			} else {
				if len(nodes) == 0 {
					return ErrUnderflowStack
				}
				left := nodes[len(nodes)-1]
				nodes = nodes[:len(nodes)-1]
				parent, err := mmr.Combine(
					mmr.Node{Hash: left.hash, Difficulty: left.difficulty},
					mmr.Node{Hash: e.Hash, Difficulty: e.Difficulty},
				)
				if err != nil {
					return err
				}
				nodes = append(nodes, stackEntry{
					hash: parent.Hash, difficulty: parent.Difficulty,
					index: u64p(number / 2), layerSize: u64p(p.LeafCount / 2),
				})
			}

		case Node:
			if e.Direction == DirRight {
				if len(nodes) == 0 {
					return ErrUnderflowStack
				}
				left := nodes[len(nodes)-1]
				nodes = nodes[:len(nodes)-1]
				if left.index == nil || left.layerSize == nil {
					return ErrMalformedElement
				}
				parent, err := mmr.Combine(
					mmr.Node{Hash: left.hash, Difficulty: left.difficulty},
					mmr.Node{Hash: e.Hash, Difficulty: e.Difficulty},
				)
				if err != nil {
					return err
				}
				nodes = append(nodes, stackEntry{
					hash: parent.Hash, difficulty: parent.Difficulty,
					index: u64p(*left.index / 2), layerSize: u64p(*left.layerSize / 2),
				})
			} else {
				nodes = append(nodes, stackEntry{hash: e.Hash, difficulty: e.Difficulty})
			}

		case Root:
			// unreachable: the terminator was already stripped above.
		}

		for len(nodes) > 1 {
			node2 := nodes[len(nodes)-1]
			node1 := nodes[len(nodes)-2]
			nodes = nodes[:len(nodes)-2]

			streamRemaining := elemIdx < len(elements)
			if node2.index == nil || (*node2.index%2 != 1 && streamRemaining) {
				nodes = append(nodes, node1, node2)
				break
			}

			parent, err := mmr.Combine(
				mmr.Node{Hash: node1.hash, Difficulty: node1.difficulty},
				mmr.Node{Hash: node2.hash, Difficulty: node2.difficulty},
			)
			if err != nil {
				return err
			}
			var index, layerSize *uint64
			if node2.index != nil {
				index = u64p(*node2.index / 2)
			}
			if node2.layerSize != nil {
				layerSize = u64p(*node2.layerSize / 2)
			}
			nodes = append(nodes, stackEntry{hash: parent.Hash, difficulty: parent.Difficulty, index: index, layerSize: layerSize})
		}
	}

	if len(nodes) != 1 {
		return ErrMalformedElement
	}
	final := nodes[0]
	if final.hash != root.Hash {
		return ErrHashMismatch
	}
	if final.difficulty != root.Difficulty {
		return ErrDifficultyMismatch
	}
	return nil
}

// bagged folds the current sibling stack right-to-left into a single
// (hash, difficulty) pair, without mutating the stack, to reconstruct the
// aggregate difficulty of the already-materialised left portion of the
// proof for the weight-witness check.
func bagged(nodes []stackEntry) (mmr.Hash, mmr.Difficulty, error) {
	tmp := append([]stackEntry(nil), nodes...)
	for len(tmp) > 1 {
		n2 := tmp[len(tmp)-1]
		n1 := tmp[len(tmp)-2]
		tmp = tmp[:len(tmp)-2]
		parent, err := mmr.Combine(
			mmr.Node{Hash: n1.hash, Difficulty: n1.difficulty},
			mmr.Node{Hash: n2.hash, Difficulty: n2.difficulty},
		)
		if err != nil {
			return mmr.Hash{}, mmr.Difficulty{}, err
		}
		tmp = append(tmp, stackEntry{hash: parent.Hash, difficulty: parent.Difficulty})
	}
	return tmp[0].hash, tmp[0].difficulty, nil
}

// checkWitness enforces left_prefix <= middle < left_prefix + child.difficulty
// where middle = ceil(aggrWeight * rootDifficulty).
func checkWitness(leftPrefix, childDifficulty mmr.Difficulty, aggrWeight float64, rootDifficulty mmr.Difficulty) error {
	middle := ceilWeighted(aggrWeight, rootDifficulty)
	left := leftPrefix.Big()
	right, err := leftPrefix.Add(childDifficulty)
	if err != nil {
		return err
	}
	rightBig := right.Big()
	if left.Cmp(middle) > 0 {
		return ErrInvalidWeight
	}
	if rightBig.Cmp(middle) <= 0 {
		return ErrInvalidWeight
	}
	return nil
}

func ceilWeighted(w float64, d mmr.Difficulty) *big.Int {
	bf := new(big.Float).SetPrec(200).SetInt(d.Big())
	bf.Mul(bf, big.NewFloat(w))
	i, acc := bf.Int(nil)
	if acc == big.Below {
		i.Add(i, big.NewInt(1))
	}
	return i
}
