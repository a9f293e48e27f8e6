// Package websearch decorates search engines with cross-cutting behavior:
// ordered engine fallback, per-engine throttling, and the priority-site
// sweep. Decorators compose; the orchestrator sees one Provider.
package websearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain/result"
	"github.com/sofialex/pravex/internal/logger"
	"github.com/sofialex/pravex/internal/metrics"
)

// Engine is one search backend (consumer interface, satisfied by the
// transport adapters).
type Engine interface {
	Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error)
}

// NamedEngine pairs an engine with the label used in logs and metrics.
type NamedEngine struct {
	Name   string
	Engine Engine
}

// Engines tries each engine in order and returns the first non-empty result
// set. An engine erroring or coming back empty advances to the next one, so
// a single flaky backend cannot blank out a search.
type Engines struct {
	engines []NamedEngine
}

// NewEngines creates the ordered fallback chain.
func NewEngines(engines ...NamedEngine) *Engines {
	return &Engines{engines: engines}
}

// Search delegates to the first engine that delivers results. All engines
// failing surfaces the last error; all engines empty is an empty result.
func (e *Engines) Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	var lastErr error

	for _, eng := range e.engines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := e.attempt(ctx, eng, query, siteFilter, limit)
		if err != nil {
			lastErr = err
			logger.FromContext(ctx).Warn("search engine failed, trying next",
				zap.String("engine", eng.Name),
				zap.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			logger.FromContext(ctx).Debug("search engine returned nothing, trying next",
				zap.String("engine", eng.Name),
			)
			continue
		}
		return results, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all search engines failed: %w", lastErr)
	}
	return nil, nil
}

func (e *Engines) attempt(ctx context.Context, eng NamedEngine, query, siteFilter string, limit int) ([]*result.Result, error) {
	start := time.Now()
	results, err := eng.Engine.Search(ctx, query, siteFilter, limit)
	metrics.ProviderRequestDuration.WithLabelValues(eng.Name).Observe(time.Since(start).Seconds())

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case len(results) == 0:
		status = "empty"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(eng.Name, status).Inc()

	return results, err
}
