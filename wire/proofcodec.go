package wire

import (
	"github.com/flyclient-go/superlight/proof"
)

// Element tag bytes within a proof blob.
const (
	tagChild     = 0
	tagRoot      = 1
	tagNodeRight = 2
	tagNodeLeft  = 3
)

// EncodeProof serializes a Proof as root_hash(32) || root_difficulty(16) ||
// leaf_count(8) || elements*.
func EncodeProof(p *proof.Proof) []byte {
	w := &writer{}
	w.writeHash(p.RootHash)
	w.writeDifficulty(p.RootDifficulty)
	w.writeU64(p.LeafCount)
	for _, el := range p.Elements {
		switch e := el.(type) {
		case proof.Child:
			w.writeU8(tagChild)
			w.writeHash(e.Hash)
			w.writeDifficulty(e.Difficulty)
		case proof.Root:
			w.writeU8(tagRoot)
			w.writeHash(e.Hash)
			w.writeDifficulty(e.Difficulty)
			w.writeU64(e.LeafCount)
		case proof.Node:
			if e.Direction == proof.DirRight {
				w.writeU8(tagNodeRight)
			} else {
				w.writeU8(tagNodeLeft)
			}
			w.writeHash(e.Hash)
			w.writeDifficulty(e.Difficulty)
		}
	}
	return w.bytes()
}

// DecodeProof parses a proof blob, bounds-checking every field and
// rejecting trailing garbage.
func DecodeProof(b []byte) (*proof.Proof, error) {
	r := newReader(b)
	rootHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	rootDifficulty, err := r.readDifficulty()
	if err != nil {
		return nil, err
	}
	leafCount, err := r.readU64()
	if err != nil {
		return nil, err
	}

	var elems []proof.Element
	for r.remaining() > 0 {
		tag, err := r.readU8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagChild:
			h, err := r.readHash()
			if err != nil {
				return nil, err
			}
			d, err := r.readDifficulty()
			if err != nil {
				return nil, err
			}
			elems = append(elems, proof.Child{Hash: h, Difficulty: d})
		case tagRoot:
			h, err := r.readHash()
			if err != nil {
				return nil, err
			}
			d, err := r.readDifficulty()
			if err != nil {
				return nil, err
			}
			lc, err := r.readU64()
			if err != nil {
				return nil, err
			}
			elems = append(elems, proof.Root{Hash: h, Difficulty: d, LeafCount: lc})
		case tagNodeRight, tagNodeLeft:
			h, err := r.readHash()
			if err != nil {
				return nil, err
			}
			d, err := r.readDifficulty()
			if err != nil {
				return nil, err
			}
			dir := proof.DirLeft
			if tag == tagNodeRight {
				dir = proof.DirRight
			}
			elems = append(elems, proof.Node{Hash: h, Difficulty: d, Direction: dir})
		default:
			return nil, ErrInvalidData
		}
	}

	return &proof.Proof{
		RootHash:       rootHash,
		RootDifficulty: rootDifficulty,
		LeafCount:      leafCount,
		Elements:       elems,
	}, nil
}
