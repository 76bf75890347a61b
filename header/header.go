// Package header defines the collaborator interfaces the core consumes for
// block headers: an opaque byte blob for transport, plus the
// (number, hash, difficulty) triple the MMR needs. Parsing header contents
// and verifying proof-of-work are both out of scope for the core and are
// expressed here only as interfaces external code implements.
package header

import (
	"context"

	"github.com/flyclient-go/superlight/mmr"
)

// Blob is an opaque, already-encoded block header as received from an
// upstream full node. The core never parses it.
type Blob []byte

// Record pairs the MMR triple with the opaque blob for transport.
type Record struct {
	Number     uint64
	Hash       mmr.Hash
	Difficulty mmr.Difficulty
	Blob       Blob
}

// PoWVerifier is the external proof-of-work oracle. A verdict of false
// with a nil error means the header failed PoW checks (not an I/O error).
type PoWVerifier interface {
	VerifyPoW(ctx context.Context, rec Record) (bool, error)
}

// UpstreamFetcher retrieves headers from a full node out of band. Errors
// returned here are UpstreamError-class: the core does not retry.
type UpstreamFetcher interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FetchHeader(ctx context.Context, number uint64) (Record, error)
}
