package sampler

import "errors"

// ErrInvalidParams is returned when (lambda, c, n, L) yield a non-positive
// or non-finite required query count, or an out-of-range c percentage.
var ErrInvalidParams = errors.New("sampler: parameters yield a non-positive or non-finite query count")

// ErrWrongBlockCount is returned by the verifier-side consistency check
// when the number of supplied query blocks does not equal the recomputed m.
var ErrWrongBlockCount = errors.New("sampler: wrong number of query blocks")
