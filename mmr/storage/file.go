package storage

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/flyclient-go/superlight/mmr"
	"golang.org/x/crypto/sha3"
)

// File is a store backed by a seekable *os.File, using ReadAt/WriteAt/
// Truncate so concurrent readers never race the single writer's append
// position.
type File struct {
	f         *os.File
	size      uint64 // total bytes including the 48-byte header
	leafCount uint64
}

// CreateFile opens path for read/write (creating or truncating it), writes
// a zeroed header, and seeds the store with a single leaf. It takes no lock:
// nothing stops another process from opening the same file.
func CreateFile(path string, leaf mmr.Node) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	if _, err := f.WriteAt(make([]byte, HeaderSize), 0); err != nil {
		f.Close()
		return nil, err
	}
	fs := &File{f: f, size: HeaderSize}
	if _, err := fs.Append(leaf); err != nil {
		f.Close()
		return nil, err
	}
	fs.leafCount = 1
	return fs, nil
}

// LoadFile opens an existing sealed file, recomputing and checking its
// integrity hash over bytes [32, EOF).
func LoadFile(path string) (*File, uint64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	size := uint64(info.Size())
	if size < HeaderSize {
		f.Close()
		return nil, 0, ErrIntegrity
	}
	const hashedFrom = IntegrityHashOffset + 32
	rest := make([]byte, size-hashedFrom)
	if _, err := f.ReadAt(rest, hashedFrom); err != nil && err != io.EOF {
		f.Close()
		return nil, 0, err
	}
	var header [HeaderSize]byte
	if _, err := f.ReadAt(header[:], 0); err != nil && err != io.EOF {
		f.Close()
		return nil, 0, err
	}
	want := header[IntegrityHashOffset : IntegrityHashOffset+32]
	got := sha3.Sum256(rest)
	if string(want) != string(got[:]) {
		f.Close()
		return nil, 0, ErrIntegrity
	}
	leafCount := binary.BigEndian.Uint64(header[LeafCountOffset : LeafCountOffset+8])
	return &File{f: f, size: size, leafCount: leafCount}, leafCount, nil
}

func (s *File) Append(node mmr.Node) (uint64, error) {
	pos := s.Len()
	enc := node.Serialize()
	if _, err := s.f.WriteAt(enc[:], int64(s.size)); err != nil {
		return 0, err
	}
	s.size += mmr.NodeSize
	return pos, nil
}

func (s *File) Get(position uint64) (mmr.Node, error) {
	return s.GetByIndex(position)
}

func (s *File) GetByIndex(i uint64) (mmr.Node, error) {
	if i >= s.Len() {
		return mmr.Node{}, ErrOutOfRange
	}
	var buf [mmr.NodeSize]byte
	off := HeaderSize + i*mmr.NodeSize
	if _, err := s.f.ReadAt(buf[:], int64(off)); err != nil {
		return mmr.Node{}, err
	}
	return mmr.NodeFromBytes(buf[:])
}

func (s *File) TruncateLast() error {
	if s.Len() == 0 {
		return ErrEmpty
	}
	s.size -= mmr.NodeSize
	return s.f.Truncate(int64(s.size))
}

func (s *File) Root() (mmr.Node, error) {
	if s.Len() == 0 {
		return mmr.Node{}, ErrEmpty
	}
	return s.GetByIndex(s.Len() - 1)
}

func (s *File) Len() uint64 {
	return (s.size - HeaderSize) / mmr.NodeSize
}

func (s *File) Seal(leafCount uint64) error {
	s.leafCount = leafCount
	var lc [8]byte
	binary.BigEndian.PutUint64(lc[:], leafCount)
	if _, err := s.f.WriteAt(lc[:], LeafCountOffset); err != nil {
		return err
	}
	const hashedFrom = IntegrityHashOffset + 32
	rest := make([]byte, s.size-hashedFrom)
	if _, err := s.f.ReadAt(rest, hashedFrom); err != nil && err != io.EOF {
		return err
	}
	sum := sha3.Sum256(rest)
	if _, err := s.f.WriteAt(sum[:], IntegrityHashOffset); err != nil {
		return err
	}
	return s.f.Sync()
}

// LeafCount returns the leaf count most recently sealed or loaded, or 1 for
// a store fresh from CreateFile.
func (s *File) LeafCount() uint64 {
	return s.leafCount
}

// Close releases the underlying file handle.
func (s *File) Close() error {
	return s.f.Close()
}

var _ Store = (*File)(nil)
