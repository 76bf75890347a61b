// Package storage implements the byte-addressable MMR node store described
// by the core: a fixed 48-byte header (integrity hash, leaf count, reserved)
// followed by 48-byte node slots in append order.
package storage

import (
	"errors"

	"github.com/flyclient-go/superlight/mmr"
)

// HeaderSize is the size of the fixed store header: 32-byte integrity hash,
// 8-byte leaf count, 8 reserved bytes.
const HeaderSize = 48

// IntegrityHashOffset, LeafCountOffset and ReservedOffset locate the header
// fields within the first 48 bytes of a sealed store.
const (
	IntegrityHashOffset = 0
	LeafCountOffset     = 32
	ReservedOffset      = 40
)

// ErrIntegrity is returned by Load when the recomputed hash does not match
// the one persisted in the store's header. It is fatal: the store must
// refuse to open.
var ErrIntegrity = errors.New("storage: integrity hash mismatch")

// ErrEmpty is returned by TruncateLast/Root when the store has no nodes to
// operate on. GetByIndex on an empty store returns ErrOutOfRange.
var ErrEmpty = errors.New("storage: store is empty")

// ErrOutOfRange is returned by Get/GetByIndex for a position or index beyond
// the current store length.
var ErrOutOfRange = errors.New("storage: position out of range")

// Store is the contract shared by the in-memory and file-backed backends.
// Positions are node indices (not byte offsets); Get/Append/TruncateLast all
// address the node region, i.e. bytes [HeaderSize + i*mmr.NodeSize, ...).
type Store interface {
	// Append writes node at the end of the store and returns its position.
	Append(node mmr.Node) (position uint64, err error)

	// Get returns the node at the given position.
	Get(position uint64) (mmr.Node, error)

	// GetByIndex is an alias of Get kept for parity with the on-disk
	// contract, which addresses nodes by i*48 byte offset.
	GetByIndex(i uint64) (mmr.Node, error)

	// TruncateLast removes the final node. Used mid-append when the
	// previous transient root must be replaced.
	TruncateLast() error

	// Root returns the last-written node, i.e. the current root.
	Root() (mmr.Node, error)

	// Len returns the number of nodes currently stored.
	Len() uint64

	// Seal persists leafCount and computes the integrity hash over all
	// bytes following the 32-byte hash prefix.
	Seal(leafCount uint64) error
}
