package client

import "errors"

// ErrPoWRejected is returned when the external proof-of-work oracle
// rejects a fetched header.
var ErrPoWRejected = errors.New("client: header rejected by pow oracle")

// ErrOmittedNumberNotCached is returned when the prover reports a block
// number as already synced, but it is not in the local header cache.
var ErrOmittedNumberNotCached = errors.New("client: omitted block number not found in local cache")

// ErrSuffixMismatch is returned when the suffix headers do not form a
// contiguous run summing to the reported right difficulty.
var ErrSuffixMismatch = errors.New("client: suffix headers inconsistent with right difficulty")

// ErrNoCheckpointKey is returned by VerifyCheckpoint when the driver has no
// pinned prover public key.
var ErrNoCheckpointKey = errors.New("client: no checkpoint public key configured")
