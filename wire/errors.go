package wire

import "errors"

// ErrInvalidData covers malformed frames: truncated fields, unknown tags,
// and bounds violations encountered while decoding.
var ErrInvalidData = errors.New("wire: invalid or truncated frame")

// ErrTrailingBytes is returned when a decode leaves unconsumed bytes.
var ErrTrailingBytes = errors.New("wire: trailing bytes after frame")
