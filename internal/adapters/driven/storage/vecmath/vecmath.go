// Package vecmath holds the vector encoding and cosine scoring shared by the
// brute-force vector stores.
package vecmath

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
)

// ErrZeroMagnitude indicates a vector whose norm is zero, for which cosine
// similarity is undefined.
var ErrZeroMagnitude = errors.New("zero magnitude vector")

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two vectors of equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, ErrZeroMagnitude
	}
	return Dot(a, b) / (na * nb), nil
}

// CosineNorms scores a and b using precomputed norms. Both norms must be non-zero.
func CosineNorms(a, b []float32, na, nb float64) float64 {
	return Dot(a, b) / (na * nb)
}

// Encode serialises v as little-endian float32 values.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode parses a blob written by Encode.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Clone copies v.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// Rank sorts hits by descending score, ties by ascending id, and keeps the
// first limit entries.
func Rank(hits []domain.ScoredPoint, limit int) []domain.ScoredPoint {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Passes reports whether score meets the optional inclusive threshold.
func Passes(score float64, threshold *float64) bool {
	if math.IsNaN(score) {
		return false
	}
	return threshold == nil || score >= *threshold
}
