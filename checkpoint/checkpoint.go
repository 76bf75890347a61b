// Package checkpoint implements the optional checkpoint attestation: a
// COSE_Sign1-wrapped, CBOR-encoded (root_hash, root_difficulty, leaf_count,
// timestamp) record a prover signs periodically so a verifier that has
// pinned the prover's public key can confirm root continuity across
// sessions, addressing the "previous-MMR commitment hole" design note.
package checkpoint

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/flyclient-go/superlight/mmr"
)

// ErrSignatureInvalid is returned when a checkpoint's COSE signature does
// not verify against the pinned public key.
var ErrSignatureInvalid = errors.New("checkpoint: signature verification failed")

// ErrMismatch is returned when a checkpoint's attested triple does not
// match the proof it is meant to accompany.
var ErrMismatch = errors.New("checkpoint: triple does not match accompanying proof")

// Attestation is the signed payload: a commitment to the MMR's state at the
// moment the prover signed it.
type Attestation struct {
	RootHash        mmr.Hash   `cbor:"1,keyasint"`
	RootDifficulty  [16]byte   `cbor:"2,keyasint"`
	LeafCount       uint64     `cbor:"3,keyasint"`
	TimestampUnixMs uint64     `cbor:"4,keyasint"`
}

// Signer produces signed checkpoints using a prover's ECDSA P-256 key.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner wraps an ECDSA P-256 private key as a checkpoint signer.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{key: key}
}

// Sign builds and signs a checkpoint over the given MMR state, returning
// the encoded COSE_Sign1 message.
func (s *Signer) Sign(rootHash mmr.Hash, rootDifficulty mmr.Difficulty, leafCount, timestampUnixMs uint64) ([]byte, error) {
	att := Attestation{
		RootHash:        rootHash,
		RootDifficulty:  rootDifficulty,
		LeafCount:       leafCount,
		TimestampUnixMs: timestampUnixMs,
	}
	payload, err := cbor.Marshal(att)
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, s.key)
	if err != nil {
		return nil, err
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// Verify checks a checkpoint's COSE signature against the pinned public
// key and, if rootHash/rootDifficulty/leafCount are supplied (non-zero
// leafCount), that the attested triple matches them exactly.
func Verify(pub *ecdsa.PublicKey, encoded []byte, wantRootHash mmr.Hash, wantRootDifficulty mmr.Difficulty, wantLeafCount uint64) (*Attestation, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(encoded); err != nil {
		return nil, err
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, pub)
	if err != nil {
		return nil, err
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return nil, ErrSignatureInvalid
	}

	var att Attestation
	if err := cbor.Unmarshal(msg.Payload, &att); err != nil {
		return nil, err
	}

	if wantLeafCount != 0 {
		if att.RootHash != wantRootHash || att.RootDifficulty != [16]byte(wantRootDifficulty) || att.LeafCount != wantLeafCount {
			return nil, ErrMismatch
		}
	}

	return &att, nil
}
