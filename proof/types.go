// Package proof builds and verifies multi-leaf MMR inclusion proofs carrying
// difficulty annotations and aggregate-weight witnesses.
package proof

import "github.com/flyclient-go/superlight/mmr"

// Direction says which side of its parent a sibling Node sits on.
type Direction uint8

const (
	DirLeft Direction = iota
	DirRight
)

// Element is one entry of a Proof's element sequence.
type Element interface {
	isElement()
}

// Child is a leaf reached by descent.
type Child struct {
	Hash       mmr.Hash
	Difficulty mmr.Difficulty
}

// Node is a sibling internal node not descended into.
type Node struct {
	Hash       mmr.Hash
	Difficulty mmr.Difficulty
	Direction  Direction
}

// Root is the terminator, always the last element.
type Root struct {
	Hash       mmr.Hash
	Difficulty mmr.Difficulty
	LeafCount  uint64
}

func (Child) isElement() {}
func (Node) isElement()  {}
func (Root) isElement()  {}

// Proof is a multi-leaf inclusion proof against one MMR snapshot.
type Proof struct {
	RootHash       mmr.Hash
	RootDifficulty mmr.Difficulty
	LeafCount      uint64
	Elements       []Element
}

// ProofBlock pairs a queried block number with its aggregate-weight witness.
// AggrWeight is present (AggrWeightSet == true) for sampled query blocks and
// absent for epoch-anchor extra blocks.
type ProofBlock struct {
	BlockNumber   uint64
	AggrWeight    float64
	AggrWeightSet bool
}
