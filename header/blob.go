package header

import (
	"encoding/binary"
	"errors"

	"github.com/flyclient-go/superlight/mmr"
)

// ErrMalformedBlob is returned by DecodeBlob when a blob is shorter than
// the fixed envelope prefix.
var ErrMalformedBlob = errors.New("header: malformed blob")

// envelopePrefixSize is the fixed (number, hash, difficulty) prefix that
// EncodeBlob writes ahead of a header's opaque payload. The core packages
// (mmr, proof, sampler, wire) never look inside a Blob; only this package
// and the client/server collaborators that sit outside the core do, so a
// light client can recover which block number a received header blob
// belongs to without the core ever interpreting header content.
const envelopePrefixSize = 8 + mmr.HashSize + mmr.DifficultySize

// EncodeBlob wraps a Record's (number, hash, difficulty) triple around its
// payload into the single byte blob carried over the wire.
func EncodeBlob(rec Record) Blob {
	out := make(Blob, envelopePrefixSize+len(rec.Blob))
	binary.BigEndian.PutUint64(out[0:8], rec.Number)
	copy(out[8:8+mmr.HashSize], rec.Hash[:])
	copy(out[8+mmr.HashSize:envelopePrefixSize], rec.Difficulty[:])
	copy(out[envelopePrefixSize:], rec.Blob)
	return out
}

// DecodeBlob reverses EncodeBlob.
func DecodeBlob(b Blob) (Record, error) {
	if len(b) < envelopePrefixSize {
		return Record{}, ErrMalformedBlob
	}
	var rec Record
	rec.Number = binary.BigEndian.Uint64(b[0:8])
	copy(rec.Hash[:], b[8:8+mmr.HashSize])
	copy(rec.Difficulty[:], b[8+mmr.HashSize:envelopePrefixSize])
	rec.Blob = append(Blob(nil), b[envelopePrefixSize:]...)
	return rec, nil
}
