package wire

// RequestTag identifies the variant of a Request frame.
type RequestTag byte

const (
	ReqBlockHeader                 RequestTag = 0x00
	ReqLatestBlockNumber           RequestTag = 0x01
	ReqNonInteractiveProof         RequestTag = 0x02
	ReqContinueNonInteractiveProof RequestTag = 0x03
)

// Request is one client-to-server frame: a one-byte tag followed by the
// payload for that variant.
type Request struct {
	Tag RequestTag

	// BlockHeader
	BlockNumber uint64

	// NonInteractiveProof / ContinueNonInteractiveProof
	Lambda uint64
	C      uint64
	L      uint64

	// ContinueNonInteractiveProof
	LastSyncedAnchor uint64
}

// Encode serializes the request.
func (r Request) Encode() []byte {
	w := &writer{}
	w.writeU8(byte(r.Tag))
	switch r.Tag {
	case ReqBlockHeader:
		w.writeU64(r.BlockNumber)
	case ReqLatestBlockNumber:
		// no payload
	case ReqNonInteractiveProof:
		w.writeU64(r.Lambda)
		w.writeU64(r.C)
		w.writeU64(r.L)
	case ReqContinueNonInteractiveProof:
		w.writeU64(r.Lambda)
		w.writeU64(r.C)
		w.writeU64(r.L)
		w.writeU64(r.LastSyncedAnchor)
	}
	return w.bytes()
}

// DecodeRequest parses a full request frame, rejecting trailing bytes.
func DecodeRequest(b []byte) (Request, error) {
	r := newReader(b)
	tag, err := r.readU8()
	if err != nil {
		return Request{}, err
	}
	var req Request
	req.Tag = RequestTag(tag)
	switch req.Tag {
	case ReqBlockHeader:
		n, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		req.BlockNumber = n
	case ReqLatestBlockNumber:
		// no payload
	case ReqNonInteractiveProof:
		lambda, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		c, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		l, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		req.Lambda, req.C, req.L = lambda, c, l
	case ReqContinueNonInteractiveProof:
		lambda, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		c, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		l, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		anchor, err := r.readU64()
		if err != nil {
			return Request{}, err
		}
		req.Lambda, req.C, req.L, req.LastSyncedAnchor = lambda, c, l, anchor
	default:
		return Request{}, ErrInvalidData
	}
	if err := r.finish(); err != nil {
		return Request{}, err
	}
	return req, nil
}
