package websearch

import (
	"context"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain/result"
	"github.com/sofialex/pravex/internal/logger"
)

const (
	// Per-site budgets: the leading sites are the richest sources.
	sweepPerSiteTop = 5
	sweepPerSiteLow = 3
	sweepTopSites   = 3

	// Early termination once enough hosts contributed enough results.
	sweepMinHosts   = 3
	sweepMinResults = 15

	sweepCap = 20
)

// Sweep augments an unrestricted search with site-filtered passes over the
// priority legal hosts. The curated sites index deep legal content that a
// general web search ranks poorly.
type Sweep struct {
	inner Engine
	sites []string
}

// NewSweep creates the sweep decorator over the given priority sites.
func NewSweep(inner Engine, sites []string) *Sweep {
	return &Sweep{inner: inner, sites: sites}
}

// Search runs the unrestricted search, then sweeps the priority sites and
// appends their results. A caller-supplied site filter bypasses the sweep.
// URL de-duplication is the caller's concern.
func (s *Sweep) Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	if siteFilter != "" || len(s.sites) == 0 {
		return s.inner.Search(ctx, query, siteFilter, limit)
	}

	general, err := s.inner.Search(ctx, query, "", limit)

	merged := make([]*result.Result, 0, len(general)+sweepCap)
	merged = append(merged, general...)
	merged = append(merged, s.sweep(ctx, query)...)

	if err != nil && len(merged) == 0 {
		return nil, err
	}
	return merged, nil
}

func (s *Sweep) sweep(ctx context.Context, query string) []*result.Result {
	var out []*result.Result
	contributed := 0

	for i, site := range s.sites {
		if ctx.Err() != nil || len(out) >= sweepCap {
			break
		}

		perSite := sweepPerSiteTop
		if i >= sweepTopSites {
			perSite = sweepPerSiteLow
		}

		results, err := s.inner.Search(ctx, query, site, perSite)
		if err != nil {
			logger.FromContext(ctx).Warn("site sweep failed",
				zap.String("site", site),
				zap.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			continue
		}

		contributed++
		out = append(out, results...)

		if contributed >= sweepMinHosts && len(out) >= sweepMinResults {
			break
		}
	}

	if len(out) > sweepCap {
		out = out[:sweepCap]
	}
	return out
}
