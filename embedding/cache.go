package embedding

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cached decorates a Provider with a TTL cache keyed by input text. Same
// text and same model configuration produce effectively the same vector, so
// memoization only trades staleness against provider round-trips. Errors are
// never cached; ErrUnavailable and *ProviderError pass through on every
// call.
type Cached struct {
	provider Provider
	cache    *gocache.Cache
}

// NewCached wraps provider with a cache holding entries for ttl. A ttl <= 0
// keeps entries forever.
func NewCached(provider Provider, ttl time.Duration) *Cached {
	if ttl <= 0 {
		return &Cached{provider: provider, cache: gocache.New(gocache.NoExpiration, 0)}
	}
	return &Cached{
		provider: provider,
		cache:    gocache.New(ttl, 2*ttl),
	}
}

// Embed returns the cached vector for text when present, otherwise delegates
// to the wrapped provider and caches the result.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v.([]float32), nil
	}
	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(text, vec)
	return vec, nil
}

// Dimensions reports the wrapped provider's vector size.
func (c *Cached) Dimensions() int { return c.provider.Dimensions() }
