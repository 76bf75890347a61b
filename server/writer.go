// Package server implements the prover side of the protocol: a TCP accept
// loop handing requests to connection goroutines, which in turn submit jobs
// to a single writer goroutine that exclusively owns the MMR, the header
// cache, and the checkpoint signer.
package server

import (
	"context"
	"sort"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/flyclient-go/superlight/checkpoint"
	"github.com/flyclient-go/superlight/config"
	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/logging"
	"github.com/flyclient-go/superlight/mmr"
	"github.com/flyclient-go/superlight/proof"
	"github.com/flyclient-go/superlight/sampler"
	"github.com/flyclient-go/superlight/wire"
)

// Writer owns the MMR tree exclusively: it is the only goroutine that ever
// calls Tree.AppendLeaf or reads the tree while building a proof, so no
// locking is needed around the tree itself. It also owns the header cache
// and, optionally, the checkpoint signer.
type Writer struct {
	tree     *mmr.Tree
	cache    *header.CSVCache
	upstream header.UpstreamFetcher
	powCheck header.PoWVerifier
	signer   *checkpoint.Signer
	cfg      config.Prover
	log      logger.Logger

	jobs           chan job
	sinceSealed    uint64
	lastCheckpoint []byte
}

// NewWriter constructs a Writer. signer may be nil to disable checkpoint
// signing.
func NewWriter(tree *mmr.Tree, cache *header.CSVCache, upstream header.UpstreamFetcher, powCheck header.PoWVerifier, signer *checkpoint.Signer, cfg config.Prover) *Writer {
	return &Writer{
		tree:     tree,
		cache:    cache,
		upstream: upstream,
		powCheck: powCheck,
		signer:   signer,
		cfg:      cfg,
		log:      logging.For("writer"),
		jobs:     make(chan job, cfg.JobQueueSize),
	}
}

// Submit enqueues a request and blocks for its response. Safe to call from
// any number of connection-handler goroutines concurrently. connID is the
// originating connection's id, threaded through for the writer's own logs.
func (w *Writer) Submit(connID string, req wire.Request) (wire.Response, error) {
	reply := make(chan jobResult, 1)
	w.jobs <- job{connID: connID, req: req, reply: reply}
	res := <-reply
	return res.resp, res.err
}

// Run is the single MMR-writer goroutine. It services submitted jobs as
// they arrive and, on every tick, polls the upstream fetcher for headers
// beyond the tree's current leaf count.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			resp, err := w.handle(ctx, j.req)
			if err != nil {
				w.log.Infof("[%s] request %d failed: %v", j.connID, j.req.Tag, err)
			}
			j.reply <- jobResult{resp: resp, err: err}
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll fetches and appends exactly one new header per tick, matching the
// single-threaded polling loop named in scope by the purpose statement's
// non-goals (no rate control layered on top of it).
func (w *Writer) poll(ctx context.Context) {
	next := w.tree.LeafCount()
	latest, err := w.upstream.LatestBlockNumber(ctx)
	if err != nil {
		w.log.Infof("poll: upstream unavailable: %v", err)
		return
	}
	if latest < next {
		return
	}

	rec, err := w.upstream.FetchHeader(ctx, next)
	if err != nil {
		w.log.Infof("poll: fetch header %d: %v", next, err)
		return
	}
	ok, err := w.powCheck.VerifyPoW(ctx, rec)
	if err != nil {
		w.log.Infof("poll: pow check header %d: %v", next, err)
		return
	}
	if !ok {
		w.log.Infof("poll: header %d rejected by pow oracle", next)
		return
	}

	if err := w.tree.AppendLeaf(rec.Hash, rec.Difficulty); err != nil {
		w.log.Infof("poll: append header %d: %v", next, err)
		return
	}
	if err := w.cache.Append(rec); err != nil {
		w.log.Infof("poll: cache header %d: %v", next, err)
	}

	w.sinceSealed++
	if w.signer != nil && w.cfg.CheckpointEvery > 0 && w.sinceSealed >= w.cfg.CheckpointEvery {
		w.sinceSealed = 0
		w.signCheckpoint()
	}
}

// LatestCheckpoint returns the most recently signed checkpoint, or nil if
// none has been signed yet (no signer configured, or fewer than
// CheckpointEvery appends have happened).
func (w *Writer) LatestCheckpoint() []byte {
	return w.lastCheckpoint
}

func (w *Writer) signCheckpoint() {
	rootHash, err := w.tree.RootHash()
	if err != nil {
		return
	}
	rootDifficulty, err := w.tree.RootDifficulty()
	if err != nil {
		return
	}
	encoded, err := w.signer.Sign(rootHash, rootDifficulty, w.tree.LeafCount(), uint64(time.Now().UnixMilli()))
	if err != nil {
		w.log.Infof("checkpoint: sign failed: %v", err)
		return
	}
	w.lastCheckpoint = encoded
}

func (w *Writer) handle(ctx context.Context, req wire.Request) (wire.Response, error) {
	switch req.Tag {
	case wire.ReqBlockHeader:
		return w.handleBlockHeader(ctx, req)
	case wire.ReqLatestBlockNumber:
		return wire.Response{Tag: wire.RespLatestBlockNumber, BlockNumber: w.tree.LeafCount() - 1}, nil
	case wire.ReqNonInteractiveProof:
		return w.handleProof(ctx, req, nil)
	case wire.ReqContinueNonInteractiveProof:
		return w.handleProof(ctx, req, &req.LastSyncedAnchor)
	default:
		return wire.Response{}, wire.ErrInvalidData
	}
}

func (w *Writer) handleBlockHeader(ctx context.Context, req wire.Request) (wire.Response, error) {
	rec, err := w.upstream.FetchHeader(ctx, req.BlockNumber)
	if err != nil {
		return wire.Response{}, err
	}
	return wire.Response{Tag: wire.RespBlockHeader, HeaderBlob: header.EncodeBlob(rec)}, nil
}

// handleProof builds a sampled proof for the current root. lastSyncedAnchor,
// when non-nil, marks the ContinueNonInteractiveProof variant: any required
// block number at or below it is reported in OmittedNumbers instead of
// Headers, since the light client already holds (and previously
// PoW-verified) that header from an earlier round.
func (w *Writer) handleProof(ctx context.Context, req wire.Request, lastSyncedAnchor *uint64) (wire.Response, error) {
	n := w.tree.LeafCount()
	totalDifficulty, err := w.tree.RootDifficulty()
	if err != nil {
		return wire.Response{}, err
	}

	suffixStart := uint64(0)
	if n > req.L {
		suffixStart = n - req.L
	}
	leftOfSuffix, err := w.tree.LeftPrefixDifficulty(suffixStart)
	if err != nil {
		return wire.Response{}, err
	}
	rightDifficulty, err := totalDifficulty.Sub(leftOfSuffix)
	if err != nil {
		return wire.Response{}, err
	}

	params := sampler.Params{Lambda: req.Lambda, CPercent: req.C, L: req.L}
	m, err := sampler.RequiredQueries(params, n, totalDifficulty, rightDifficulty)
	if err != nil {
		return wire.Response{}, err
	}
	rootHash, err := w.tree.RootHash()
	if err != nil {
		return wire.Response{}, err
	}
	delta := sampler.Delta(totalDifficulty, rightDifficulty)
	weights := sampler.DeriveWeights(rootHash, m, delta)

	indices := make([]uint64, 0, int(m)+sampler.MaxAnchors)
	for _, wgt := range weights {
		idx, err := w.tree.LeafAtAggrWeight(wgt)
		if err != nil {
			return wire.Response{}, err
		}
		indices = append(indices, idx)
	}
	indices = append(indices, sampler.EpochAnchors(n)...)

	builtProof, err := proof.Build(w.tree, indices)
	if err != nil {
		return wire.Response{}, err
	}
	proofBlob := wire.EncodeProof(builtProof)

	queryNumbers := dedupSortedUint64(indices)

	var headers [][]byte
	var omitted []uint64
	for _, number := range queryNumbers {
		if lastSyncedAnchor != nil && number <= *lastSyncedAnchor {
			omitted = append(omitted, number)
			continue
		}
		rec, err := w.upstream.FetchHeader(ctx, number)
		if err != nil {
			return wire.Response{}, err
		}
		headers = append(headers, header.EncodeBlob(rec))
	}

	suffixHeaders := make([][]byte, 0, n-suffixStart)
	for number := suffixStart; number < n; number++ {
		rec, err := w.upstream.FetchHeader(ctx, number)
		if err != nil {
			return wire.Response{}, err
		}
		suffixHeaders = append(suffixHeaders, header.EncodeBlob(rec))
	}

	resp := wire.Response{
		Headers:         headers,
		ProofBlob:       proofBlob,
		L:               req.L,
		RightDifficulty: rightDifficulty,
		SuffixHeaders:   suffixHeaders,
	}
	if lastSyncedAnchor != nil {
		resp.Tag = wire.RespContinueNonInteractiveProof
		resp.OmittedNumbers = omitted
	} else {
		resp.Tag = wire.RespNonInteractiveProof
	}
	return resp, nil
}

func dedupSortedUint64(in []uint64) []uint64 {
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
		last, haveLast = v, true
	}
	return out
}
