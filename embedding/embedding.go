package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable signals that no embedding can be produced because no
// provider is configured or embeddings are disabled. It is an expected
// condition, not a failure: the engine reacts by falling back to keyword
// retrieval.
var ErrUnavailable = errors.New("embedding unavailable")

// Provider converts text into a fixed-length embedding vector.
//
// Embed returns ErrUnavailable when the provider cannot produce embeddings
// by configuration, and a *ProviderError for any real failure of a
// configured backend (authentication, connectivity, malformed response).
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size, or 0 when unknown.
	Dimensions() int
}

// ProviderError is a fatal failure of a configured embedding backend. It is
// never handled internally by the engine; callers see it unwrapped so a
// backend outage is not masked by a silent keyword fallback.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// None returns the null provider used when no embedding backend is
// configured. Every Embed call reports ErrUnavailable.
func None() Provider { return noneProvider{} }

type noneProvider struct{}

func (noneProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

func (noneProvider) Dimensions() int { return 0 }
