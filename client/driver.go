// Package client implements the light-client side of the protocol: a TCP
// request/response driver, proof verification, PoW-oracle invocation, and
// the CSV header cache that lets a continuation round omit already-synced
// headers.
package client

import (
	"context"
	"crypto/ecdsa"
	"io"
	"net"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/flyclient-go/superlight/checkpoint"
	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/logging"
	"github.com/flyclient-go/superlight/sampler"
	"github.com/flyclient-go/superlight/wire"
)

// Driver drives the TCP protocol against one prover.
type Driver struct {
	ServerAddress string
	Cache         *header.CSVCache
	PoWCheck      header.PoWVerifier
	CheckpointPub *ecdsa.PublicKey // nil disables checkpoint verification

	log logger.Logger
}

// NewDriver constructs a Driver. checkpointPub may be nil if the light
// client has not pinned a prover public key.
func NewDriver(serverAddress string, cache *header.CSVCache, powCheck header.PoWVerifier, checkpointPub *ecdsa.PublicKey) *Driver {
	return &Driver{
		ServerAddress: serverAddress,
		Cache:         cache,
		PoWCheck:      powCheck,
		CheckpointPub: checkpointPub,
		log:           logging.For("client"),
	}
}

// roundTrip opens one connection, writes the request, half-closes, and
// reads the response to EOF, matching the connection-per-request framing.
func (d *Driver) roundTrip(req wire.Request) (wire.Response, error) {
	conn, err := net.Dial("tcp", d.ServerAddress)
	if err != nil {
		return wire.Response{}, err
	}
	defer conn.Close()

	if _, err := conn.Write(req.Encode()); err != nil {
		return wire.Response{}, err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return wire.Response{}, err
		}
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return wire.Response{}, err
	}

	resp, err := wire.DecodeResponse(raw)
	if err != nil {
		return wire.Response{}, err
	}
	if resp.Tag == wire.RespError {
		return wire.Response{}, &RemoteError{Message: resp.ErrorMessage}
	}
	return resp, nil
}

// RemoteError wraps an Error response from the prover.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "prover: " + e.Message }

// LatestBlockNumber asks the prover for its current chain tip.
func (d *Driver) LatestBlockNumber() (uint64, error) {
	resp, err := d.roundTrip(wire.Request{Tag: wire.ReqLatestBlockNumber})
	if err != nil {
		return 0, err
	}
	return resp.BlockNumber, nil
}

// BlockHeader fetches and PoW-verifies a single header by number.
func (d *Driver) BlockHeader(ctx context.Context, number uint64) (header.Record, error) {
	resp, err := d.roundTrip(wire.Request{Tag: wire.ReqBlockHeader, BlockNumber: number})
	if err != nil {
		return header.Record{}, err
	}
	rec, err := header.DecodeBlob(resp.HeaderBlob)
	if err != nil {
		return header.Record{}, err
	}
	ok, err := d.PoWCheck.VerifyPoW(ctx, rec)
	if err != nil {
		return header.Record{}, err
	}
	if !ok {
		return header.Record{}, ErrPoWRejected
	}
	return rec, nil
}

// NonInteractiveProof requests and verifies a fresh sampled proof.
func (d *Driver) NonInteractiveProof(ctx context.Context, p sampler.Params) (*Result, error) {
	resp, err := d.roundTrip(wire.Request{
		Tag: wire.ReqNonInteractiveProof, Lambda: p.Lambda, C: p.CPercent, L: p.L,
	})
	if err != nil {
		return nil, err
	}
	return d.verifyResponse(ctx, resp, p, nil)
}

// ContinueNonInteractiveProof requests a proof against the current root
// while omitting headers at or below lastSyncedAnchor, which the driver
// must already have cached from an earlier round.
func (d *Driver) ContinueNonInteractiveProof(ctx context.Context, p sampler.Params, lastSyncedAnchor uint64) (*Result, error) {
	resp, err := d.roundTrip(wire.Request{
		Tag: wire.ReqContinueNonInteractiveProof, Lambda: p.Lambda, C: p.CPercent, L: p.L,
		LastSyncedAnchor: lastSyncedAnchor,
	})
	if err != nil {
		return nil, err
	}
	return d.verifyResponse(ctx, resp, p, &lastSyncedAnchor)
}

// VerifyCheckpoint checks a checkpoint byte string against the pinned
// public key and a proof result's root triple, if the driver has a pinned
// key configured.
func (d *Driver) VerifyCheckpoint(encoded []byte, res *Result) (*checkpoint.Attestation, error) {
	if d.CheckpointPub == nil {
		return nil, ErrNoCheckpointKey
	}
	return checkpoint.Verify(d.CheckpointPub, encoded, res.Proof.RootHash, res.Proof.RootDifficulty, res.Proof.LeafCount)
}
