package client

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/mmr"
	"github.com/flyclient-go/superlight/mmr/storage"
	"github.com/flyclient-go/superlight/proof"
	"github.com/flyclient-go/superlight/sampler"
	"github.com/flyclient-go/superlight/wire"
)

// fixedVerdictPoW returns the same PoW verdict for every header, so a test
// can accept all headers or force a rejection.
type fixedVerdictPoW struct{ ok bool }

func (f fixedVerdictPoW) VerifyPoW(ctx context.Context, rec header.Record) (bool, error) {
	return f.ok, nil
}

// singleLeafFixture builds the simplest possible chain (one leaf) and the
// matching proof/response pair. With n == 1 and L >= 1, right difficulty
// always equals total difficulty (delta == 0.5) and the lone leaf's
// aggregate-weight interval spans the whole [0, T) range, so every derived
// weight target lands inside it. The scenario is collision-free, and the
// one-element proof takes proof.Verify's single-leaf path, which checks no
// weight witness, so the result does not depend on the derived weight value.
func singleLeafFixture(t *testing.T) (wire.Response, sampler.Params, header.Record) {
	t.Helper()

	var h mmr.Hash
	h[0] = 0xAA
	total := mmr.DifficultyFromUint64(100)

	store := storage.NewMemory(mmr.Node{Hash: h, Difficulty: total})
	tree := mmr.NewTree(store)

	p, err := proof.Build(tree, []uint64{0})
	require.NoError(t, err)
	proofBlob := wire.EncodeProof(p)

	rec := header.Record{Number: 0, Hash: h, Difficulty: total, Blob: header.Blob("genesis")}
	blob := header.EncodeBlob(rec)

	resp := wire.Response{
		Tag:             wire.RespNonInteractiveProof,
		Headers:         [][]byte{blob},
		ProofBlob:       proofBlob,
		L:               1,
		RightDifficulty: total,
		SuffixHeaders:   [][]byte{blob},
	}
	params := sampler.Params{Lambda: 0, CPercent: 70, L: 1}
	return resp, params, rec
}

func newTestDriver(t *testing.T, powCheck header.PoWVerifier) *Driver {
	t.Helper()
	cache, err := header.OpenCSVCache(filepath.Join(t.TempDir(), "cache.csv"), 4)
	require.NoError(t, err)
	return NewDriver("unused:0", cache, powCheck, nil)
}

func TestVerifyResponseHappyPath(t *testing.T) {
	resp, params, rec := singleLeafFixture(t)
	d := newTestDriver(t, fixedVerdictPoW{ok: true})

	res, err := d.verifyResponse(context.Background(), resp, params, nil)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, rec.Number, res.Blocks[0].BlockNumber)
	assert.True(t, res.Blocks[0].AggrWeightSet)
	require.Len(t, res.Suffix, 1)
	assert.Equal(t, rec.Hash, res.Suffix[0].Hash)
}

func TestVerifyResponseRejectsFailedPoW(t *testing.T) {
	resp, params, _ := singleLeafFixture(t)
	d := newTestDriver(t, fixedVerdictPoW{ok: false})

	_, err := d.verifyResponse(context.Background(), resp, params, nil)
	assert.ErrorIs(t, err, ErrPoWRejected)
}

func TestVerifyResponseRejectsHeaderProofHashMismatch(t *testing.T) {
	resp, params, rec := singleLeafFixture(t)
	tampered := rec
	tampered.Hash[0] ^= 0xFF
	resp.Headers = [][]byte{header.EncodeBlob(tampered)}
	d := newTestDriver(t, fixedVerdictPoW{ok: true})

	_, err := d.verifyResponse(context.Background(), resp, params, nil)
	assert.ErrorIs(t, err, proof.ErrHashMismatch)
}

func TestVerifyResponseRejectsSuffixMismatch(t *testing.T) {
	resp, params, _ := singleLeafFixture(t)
	resp.SuffixHeaders = nil // wrong length: verifySuffix expects exactly one
	d := newTestDriver(t, fixedVerdictPoW{ok: true})

	_, err := d.verifyResponse(context.Background(), resp, params, nil)
	assert.ErrorIs(t, err, ErrSuffixMismatch)
}

func TestVerifyResponseRejectsOmittedNumberNotCached(t *testing.T) {
	resp, params, _ := singleLeafFixture(t)
	resp.Tag = wire.RespContinueNonInteractiveProof
	resp.OmittedNumbers = []uint64{0}
	resp.Headers = nil
	d := newTestDriver(t, fixedVerdictPoW{ok: true})

	anchor := uint64(0)
	_, err := d.verifyResponse(context.Background(), resp, params, &anchor)
	assert.ErrorIs(t, err, ErrOmittedNumberNotCached)
}

func TestVerifyResponseResolvesOmittedNumberFromCache(t *testing.T) {
	resp, params, rec := singleLeafFixture(t)
	resp.Tag = wire.RespContinueNonInteractiveProof
	resp.OmittedNumbers = []uint64{0}
	resp.Headers = nil
	d := newTestDriver(t, fixedVerdictPoW{ok: true})
	require.NoError(t, d.Cache.Append(rec))

	anchor := uint64(0)
	res, err := d.verifyResponse(context.Background(), resp, params, &anchor)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, uint64(0), res.Blocks[0].BlockNumber)
}
