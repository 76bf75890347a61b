package wire

import "github.com/flyclient-go/superlight/mmr"

// ResponseTag identifies the variant of a Response frame.
type ResponseTag byte

const (
	RespBlockHeader                 ResponseTag = 0x00
	RespLatestBlockNumber           ResponseTag = 0x01
	RespNonInteractiveProof         ResponseTag = 0x02
	RespContinueNonInteractiveProof ResponseTag = 0x03
	RespError                       ResponseTag = 0x04
)

// Response is one server-to-client frame.
type Response struct {
	Tag ResponseTag

	// BlockHeader
	HeaderBlob []byte

	// LatestBlockNumber
	BlockNumber uint64

	// NonInteractiveProof / ContinueNonInteractiveProof
	Headers         [][]byte
	ProofBlob       []byte
	L               uint64
	RightDifficulty mmr.Difficulty
	SuffixHeaders   [][]byte

	// ContinueNonInteractiveProof
	OmittedNumbers []uint64

	// Error
	ErrorMessage string
}

// Encode serializes the response.
func (resp Response) Encode() []byte {
	w := &writer{}
	w.writeU8(byte(resp.Tag))
	switch resp.Tag {
	case RespBlockHeader:
		w.writeBytesVec(resp.HeaderBlob)
	case RespLatestBlockNumber:
		w.writeU64(resp.BlockNumber)
	case RespNonInteractiveProof:
		w.writeHeaderVec(resp.Headers)
		w.writeBytesVec(resp.ProofBlob)
		w.writeU64(resp.L)
		w.writeDifficulty(resp.RightDifficulty)
		w.writeHeaderVec(resp.SuffixHeaders)
	case RespContinueNonInteractiveProof:
		w.writeU64Vec(resp.OmittedNumbers)
		w.writeHeaderVec(resp.Headers)
		w.writeBytesVec(resp.ProofBlob)
		w.writeU64(resp.L)
		w.writeDifficulty(resp.RightDifficulty)
		w.writeHeaderVec(resp.SuffixHeaders)
	case RespError:
		w.buf.WriteString(resp.ErrorMessage)
	}
	return w.bytes()
}

// DecodeResponse parses a full response frame. RespError consumes the rest
// of the frame as a UTF-8 message with no further length prefix, matching
// the wire contract (Error is "utf8 bytes to end-of-frame").
func DecodeResponse(b []byte) (Response, error) {
	r := newReader(b)
	tag, err := r.readU8()
	if err != nil {
		return Response{}, err
	}
	var resp Response
	resp.Tag = ResponseTag(tag)
	switch resp.Tag {
	case RespBlockHeader:
		blob, err := r.readBytesVec()
		if err != nil {
			return Response{}, err
		}
		resp.HeaderBlob = blob
	case RespLatestBlockNumber:
		n, err := r.readU64()
		if err != nil {
			return Response{}, err
		}
		resp.BlockNumber = n
	case RespNonInteractiveProof:
		headers, err := r.readHeaderVec()
		if err != nil {
			return Response{}, err
		}
		blob, err := r.readBytesVec()
		if err != nil {
			return Response{}, err
		}
		l, err := r.readU64()
		if err != nil {
			return Response{}, err
		}
		rd, err := r.readDifficulty()
		if err != nil {
			return Response{}, err
		}
		suffix, err := r.readHeaderVec()
		if err != nil {
			return Response{}, err
		}
		resp.Headers, resp.ProofBlob, resp.L, resp.RightDifficulty, resp.SuffixHeaders = headers, blob, l, rd, suffix
	case RespContinueNonInteractiveProof:
		omitted, err := r.readU64Vec()
		if err != nil {
			return Response{}, err
		}
		headers, err := r.readHeaderVec()
		if err != nil {
			return Response{}, err
		}
		blob, err := r.readBytesVec()
		if err != nil {
			return Response{}, err
		}
		l, err := r.readU64()
		if err != nil {
			return Response{}, err
		}
		rd, err := r.readDifficulty()
		if err != nil {
			return Response{}, err
		}
		suffix, err := r.readHeaderVec()
		if err != nil {
			return Response{}, err
		}
		resp.OmittedNumbers, resp.Headers, resp.ProofBlob, resp.L, resp.RightDifficulty, resp.SuffixHeaders =
			omitted, headers, blob, l, rd, suffix
	case RespError:
		resp.ErrorMessage = string(b[r.pos:])
		r.pos = len(b)
	default:
		return Response{}, ErrInvalidData
	}
	if err := r.finish(); err != nil {
		return Response{}, err
	}
	return resp, nil
}
