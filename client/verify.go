package client

import (
	"context"
	"sort"

	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/mmr"
	"github.com/flyclient-go/superlight/proof"
	"github.com/flyclient-go/superlight/sampler"
	"github.com/flyclient-go/superlight/wire"
)

// Result is a verified NonInteractiveProof/ContinueNonInteractiveProof
// round: the decoded proof, the headers it covers, and the unconditionally
// checked suffix.
type Result struct {
	Proof   *proof.Proof
	Blocks  []proof.ProofBlock
	Headers map[uint64]header.Record
	Suffix  []header.Record
}

// verifyResponse implements the full client-side pipeline: decode the
// proof blob, recompute the sampled query set the same way the prover did,
// PoW-verify every supplied header, cross-check each against its
// committed proof leaf, and finally run the MMR proof verifier.
func (d *Driver) verifyResponse(ctx context.Context, resp wire.Response, p sampler.Params, lastSyncedAnchor *uint64) (*Result, error) {
	decoded, err := wire.DecodeProof(resp.ProofBlob)
	if err != nil {
		return nil, err
	}

	n := decoded.LeafCount
	total := decoded.RootDifficulty
	right := resp.RightDifficulty

	delta := sampler.Delta(total, right)
	m, err := sampler.RequiredQueries(p, n, total, right)
	if err != nil {
		return nil, err
	}
	weights := sampler.DeriveWeights(decoded.RootHash, m, delta)
	anchors := sampler.EpochAnchors(n)
	anchorSet := make(map[uint64]bool, len(anchors))
	for _, a := range anchors {
		anchorSet[a] = true
	}

	records := make(map[uint64]header.Record)
	for _, blob := range resp.Headers {
		rec, err := header.DecodeBlob(blob)
		if err != nil {
			return nil, err
		}
		ok, err := d.PoWCheck.VerifyPoW(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPoWRejected
		}
		if err := d.Cache.Append(rec); err != nil {
			return nil, err
		}
		records[rec.Number] = rec
	}
	for _, number := range resp.OmittedNumbers {
		rec, ok, err := d.Cache.Get(number)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOmittedNumberNotCached
		}
		records[rec.Number] = rec
	}

	fullNumbers := make([]uint64, 0, len(records))
	for number := range records {
		fullNumbers = append(fullNumbers, number)
	}
	sort.Slice(fullNumbers, func(i, j int) bool { return fullNumbers[i] < fullNumbers[j] })

	var weightNumbers, anchorNumbers []uint64
	for _, number := range fullNumbers {
		if anchorSet[number] {
			anchorNumbers = append(anchorNumbers, number)
		} else {
			weightNumbers = append(weightNumbers, number)
		}
	}
	if uint64(len(weightNumbers)) != m {
		return nil, sampler.ErrWrongBlockCount
	}

	children := childrenInOrder(decoded)
	if len(children) != len(fullNumbers) {
		return nil, proof.ErrMalformedElement
	}
	for i, number := range fullNumbers {
		rec := records[number]
		if rec.Hash != children[i].Hash || rec.Difficulty != children[i].Difficulty {
			return nil, proof.ErrHashMismatch
		}
	}

	blocks := make([]proof.ProofBlock, 0, len(fullNumbers))
	for i, number := range weightNumbers {
		blocks = append(blocks, proof.ProofBlock{BlockNumber: number, AggrWeight: weights[i], AggrWeightSet: true})
	}
	for _, number := range anchorNumbers {
		blocks = append(blocks, proof.ProofBlock{BlockNumber: number})
	}

	if err := proof.Verify(decoded, blocks); err != nil {
		return nil, err
	}

	suffix, err := d.verifySuffix(ctx, resp, n, right)
	if err != nil {
		return nil, err
	}

	return &Result{Proof: decoded, Blocks: blocks, Headers: records, Suffix: suffix}, nil
}

func (d *Driver) verifySuffix(ctx context.Context, resp wire.Response, n uint64, right mmr.Difficulty) ([]header.Record, error) {
	suffixStart := uint64(0)
	if n > resp.L {
		suffixStart = n - resp.L
	}
	if uint64(len(resp.SuffixHeaders)) != n-suffixStart {
		return nil, ErrSuffixMismatch
	}

	var sum mmr.Difficulty
	records := make([]header.Record, 0, len(resp.SuffixHeaders))
	for i, blob := range resp.SuffixHeaders {
		rec, err := header.DecodeBlob(blob)
		if err != nil {
			return nil, err
		}
		if rec.Number != suffixStart+uint64(i) {
			return nil, ErrSuffixMismatch
		}
		ok, err := d.PoWCheck.VerifyPoW(ctx, rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPoWRejected
		}
		sum, err = sum.Add(rec.Difficulty)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if sum != right {
		return nil, ErrSuffixMismatch
	}
	return records, nil
}

func childrenInOrder(p *proof.Proof) []proof.Child {
	var out []proof.Child
	for _, el := range p.Elements {
		if c, ok := el.(proof.Child); ok {
			out = append(out, c)
		}
	}
	return out
}
