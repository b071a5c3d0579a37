// Package mock provides a deterministic embedding.Provider for tests and
// demos. Vectors are seeded from a hash of the input text and normalized, so
// identical text always embeds identically and distinct texts are very
// unlikely to collide.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Provider generates hash-seeded unit vectors.
type Provider struct {
	dimensions int
}

// New creates a mock provider with the given vector size (default 64 when
// dims <= 0).
func New(dims int) *Provider {
	if dims <= 0 {
		dims = 64
	}
	return &Provider{dimensions: dims}
}

// Embed produces a deterministic unit vector for text.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

// Dimensions returns the vector size.
func (p *Provider) Dimensions() int { return p.dimensions }

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
