// Package wire implements the binary, big-endian, length-prefixed request,
// response, and proof-blob framing. All integers are big-endian; strings
// and vectors are u64-length-prefixed; decoding bounds-checks every field
// and rejects trailing garbage.
package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/flyclient-go/superlight/mmr"
)

type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) remaining() int { return len(r.b) - r.pos }

func (r *reader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrInvalidData
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) readU8() (byte, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readU64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) readHash() (mmr.Hash, error) {
	var h mmr.Hash
	b, err := r.readBytes(mmr.HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (r *reader) readDifficulty() (mmr.Difficulty, error) {
	var d mmr.Difficulty
	b, err := r.readBytes(mmr.DifficultySize)
	if err != nil {
		return d, err
	}
	copy(d[:], b)
	return d, nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readU64()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) readBytesVec() ([]byte, error) {
	n, err := r.readU64()
	if err != nil {
		return nil, err
	}
	return r.readBytes(int(n))
}

func (r *reader) readU64Vec() ([]uint64, error) {
	n, err := r.readU64()
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := r.readU64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *reader) readHeaderVec() ([][]byte, error) {
	n, err := r.readU64()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		h, err := r.readBytesVec()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *reader) finish() error {
	if r.remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) writeU8(v byte) { w.buf.WriteByte(v) }

func (w *writer) writeU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) writeHash(h mmr.Hash) { w.buf.Write(h[:]) }

func (w *writer) writeDifficulty(d mmr.Difficulty) { w.buf.Write(d[:]) }

func (w *writer) writeString(s string) {
	w.writeU64(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) writeBytesVec(b []byte) {
	w.writeU64(uint64(len(b)))
	w.buf.Write(b)
}

func (w *writer) writeU64Vec(vs []uint64) {
	w.writeU64(uint64(len(vs)))
	for _, v := range vs {
		w.writeU64(v)
	}
}

func (w *writer) writeHeaderVec(hs [][]byte) {
	w.writeU64(uint64(len(hs)))
	for _, h := range hs {
		w.writeBytesVec(h)
	}
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }
