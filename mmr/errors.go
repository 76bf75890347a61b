package mmr

import "errors"

// ErrInvalidWeight is returned when an aggregate weight argument falls
// outside [0, 1).
var ErrInvalidWeight = errors.New("mmr: aggregate weight must be in [0, 1)")

// ErrEmptyTree is returned by operations that require at least the genesis
// leaf to have been appended.
var ErrEmptyTree = errors.New("mmr: tree has no leaves")
