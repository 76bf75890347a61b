// Package sampler implements the NIPoPoW-VD non-interactive query sampler:
// it derives the required query count m from (lambda, c, n, R, T) and then
// derives m aggregate-weight targets deterministically from the MMR root
// hash via Fiat-Shamir, plus a fixed set of epoch-aligned sync anchors.
package sampler

import (
	"encoding/binary"
	"math"
	"math/big"
	"sort"

	"github.com/flyclient-go/superlight/mmr"
	"golang.org/x/crypto/sha3"
)

// EpochLength is the fixed epoch boundary used to select extra anchor
// leaves; it is a named constant rather than a magic number so a fork
// targeting a different chain can override it, but it is not configurable
// over the wire: prover and verifier must agree on it to derive the same
// anchor set.
var EpochLength uint64 = 30000

// MaxAnchors caps the number of epoch-boundary anchors added to a proof.
const MaxAnchors = 10

// Params carries a sampling request's security parameters. CPercent is the
// adversarial hash-power fraction expressed as an integer percentage in
// [1, 99], matching the wire encoding (c:u64).
type Params struct {
	Lambda   uint64
	CPercent uint64
	L        uint64
}

// RequiredQueries computes m, the number of independent weighted leaf
// queries required for security Lambda against adversary fraction
// CPercent/100, given the current chain shape (n leaves, total difficulty T,
// trailing-L difficulty R).
func RequiredQueries(p Params, n uint64, totalDifficulty, rightDifficulty mmr.Difficulty) (uint64, error) {
	if p.CPercent == 0 || p.CPercent > 99 {
		return 0, ErrInvalidParams
	}
	c := float64(p.CPercent) / 100.0

	delta := Delta(totalDifficulty, rightDifficulty)
	if delta <= 0 || delta >= 1 {
		return 0, ErrInvalidParams
	}

	logCDelta := math.Log(delta) / math.Log(c)
	x := 1 - 1/logCDelta
	if x < 0 {
		x = 0
	}

	logX := math.Log2(x)
	if logX == 0 || math.IsNaN(logX) || math.IsInf(logX, 0) {
		return 0, ErrInvalidParams
	}

	numerator := -float64(p.Lambda) - math.Log2(c*float64(n))
	mf := math.Ceil(numerator/logX) + 1
	if math.IsNaN(mf) || math.IsInf(mf, 0) || mf <= 0 {
		return 0, ErrInvalidParams
	}
	return uint64(mf), nil
}

// Delta computes R / (T + R) in double precision. Converting 128-bit
// difficulties to float64 loses precision above 2^53, matching the design
// note on the reference implementation's own precision hazard; the sampler
// only needs delta to pick m and to shape the sampling CDF, not for exact
// accounting. Both prover and light client call this on their own
// (root_difficulty, right_difficulty) pair to agree on the same value.
func Delta(total, right mmr.Difficulty) float64 {
	t := new(big.Float).SetInt(total.Big())
	r := new(big.Float).SetInt(right.Big())
	sum := new(big.Float).Add(t, r)
	if sum.Sign() == 0 {
		return 0
	}
	ratio := new(big.Float).Quo(r, sum)
	f, _ := ratio.Float64()
	return f
}

// WeightTarget is one derived (index, aggregate-weight target) pair.
// DeriveWeights does not use it: it returns the sorted weights alone,
// without their derivation indices.
type WeightTarget struct {
	Index int
	W     float64
}

// DeriveWeights computes the m Fiat-Shamir aggregate-weight targets from
// the root hash, applies the CDF f(u) = 1 - exp(u*ln(delta)), and returns
// them sorted ascending.
func DeriveWeights(rootHash mmr.Hash, m uint64, delta float64) []float64 {
	lnDelta := math.Log(delta)
	out := make([]float64, m)
	for i := uint64(0); i < m; i++ {
		u := fiatShamirUnit(rootHash, i)
		out[i] = 1 - math.Exp(u*lnDelta)
	}
	sort.Float64s(out)
	return out
}

// fiatShamirUnit derives u_i = r_i mapped into [0,1) by IEEE-754 mantissa
// stuffing: sha3-256(root_hash || be_u64(i)), take the first 8 bytes, force
// the sign/exponent bits to 0x3FF (a value in [1,2)), and subtract 1.
func fiatShamirUnit(rootHash mmr.Hash, i uint64) float64 {
	h := sha3.New256()
	h.Write(rootHash[:])
	var ib [8]byte
	binary.BigEndian.PutUint64(ib[:], i)
	h.Write(ib[:])
	digest := h.Sum(nil)

	bits := binary.BigEndian.Uint64(digest[:8])
	bits = (bits & 0x000FFFFFFFFFFFFF) | 0x3FF0000000000000
	return math.Float64frombits(bits) - 1.0
}

// EpochAnchors returns up to MaxAnchors epoch-boundary leaf indices, used
// to let an already-partially-synced verifier skip a known prefix.
// Anchors start at floor((n-1)/EpochLength)*EpochLength and step back by
// EpochLength while the result stays greater than EpochLength.
func EpochAnchors(n uint64) []uint64 {
	if n == 0 {
		return nil
	}
	start := ((n - 1) / EpochLength) * EpochLength
	var anchors []uint64
	for k := uint64(0); k < MaxAnchors; k++ {
		step := k * EpochLength
		if start < step {
			break
		}
		v := start - step
		if v <= EpochLength {
			break
		}
		anchors = append(anchors, v)
	}
	return anchors
}

// VerifyBlockCount re-derives m and checks that the number of query blocks
// (total received minus the epoch-anchor count) matches it.
func VerifyBlockCount(p Params, n uint64, totalDifficulty, rightDifficulty mmr.Difficulty, queryBlockCount int) error {
	m, err := RequiredQueries(p, n, totalDifficulty, rightDifficulty)
	if err != nil {
		return err
	}
	if uint64(queryBlockCount) != m {
		return ErrWrongBlockCount
	}
	return nil
}
