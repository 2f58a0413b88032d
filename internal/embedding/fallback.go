// ABOUTME: Deterministic fallback vectors seeded from text or row identity
// ABOUTME: HashEmbedder exposes the same vectors as an offline Provider
package embedding

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
)

// fallbackStdDev is the spread of the substitute vector distribution.
const fallbackStdDev = 0.1

// SeedFromText derives a stable seed from text (FNV-1a, 64 bit).
func SeedFromText(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}

// FallbackVector draws dim values from N(0, 0.1) with a PCG source seeded by
// seed and returns them L2-normalised. The same seed always yields the same
// vector. It never returns a zero vector for dim > 0.
func FallbackVector(seed uint64, dim int) []float64 {
	if dim <= 0 {
		return []float64{}
	}
	for s := seed; ; s++ {
		rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
		v := make([]float64, dim)
		for i := range v {
			v[i] = rng.NormFloat64() * fallbackStdDev
		}
		if NormalizeInPlace(v) {
			return v
		}
	}
}

// HashEmbedder is an offline Provider that maps text to its seeded fallback
// vector. It is only meant for tests and for running without an API key:
// similar texts do not get similar vectors.
type HashEmbedder struct {
	Dimension int
}

// NewHashEmbedder creates a HashEmbedder producing dim-length vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &HashEmbedder{Dimension: dim}
}

// Embed returns the deterministic fallback vector for text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return FallbackVector(SeedFromText(text), e.Dimension), nil
}
