package websearch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/sofialex/pravex/internal/domain/result"
)

// Throttled spaces calls to one engine with a shared limiter. External
// search hosts ban aggressive clients, so the limiter state is deliberately
// shared across requests.
type Throttled struct {
	inner   Engine
	limiter *rate.Limiter
}

// NewThrottled wraps an engine with a minimum interval between calls.
// Non-positive intervals disable throttling.
func NewThrottled(inner Engine, interval time.Duration) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttled{inner: inner, limiter: rate.NewLimiter(limit, 1)}
}

// Search waits for the next free slot before delegating.
func (t *Throttled) Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}
	return t.inner.Search(ctx, query, siteFilter, limit)
}
