package search

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/result"
	"github.com/sofialex/pravex/internal/logger"
	"github.com/sofialex/pravex/internal/metrics"
)

// Config tunes the orchestration loop.
type Config struct {
	SearchTimeout      time.Duration
	FetchTimeout       time.Duration
	GenerateTimeout    time.Duration
	RefineAvgThreshold float64
	CoverageRatio      float64
	SearchConcurrency  int
	FetchConcurrency   int
}

// DefaultConfig returns the production orchestration settings.
func DefaultConfig() Config {
	return Config{
		SearchTimeout:      12 * time.Second,
		FetchTimeout:       15 * time.Second,
		GenerateTimeout:    20 * time.Second,
		RefineAvgThreshold: 0.7,
		CoverageRatio:      0.8,
		SearchConcurrency:  3,
		FetchConcurrency:   4,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = d.SearchTimeout
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = d.GenerateTimeout
	}
	if c.RefineAvgThreshold <= 0 {
		c.RefineAvgThreshold = d.RefineAvgThreshold
	}
	if c.CoverageRatio <= 0 {
		c.CoverageRatio = d.CoverageRatio
	}
	if c.SearchConcurrency <= 0 {
		c.SearchConcurrency = d.SearchConcurrency
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = d.FetchConcurrency
	}
}

// Service orchestrates the iterative legal search pipeline: query expansion,
// concurrent provider searches, deep content fetching, relevancy scoring,
// one optional refinement round, and adaptive filtering.
type Service struct {
	provider Provider
	fetcher  Fetcher
	gen      Generator
	scorer   Scorer
	prep     QueryPreparer
	filter   *Filter
	cfg      Config
}

// New creates a search orchestrator. gen may be nil, which disables query
// expansion and refinement; everything else is required.
func New(
	provider Provider, fetcher Fetcher, gen Generator,
	scorer Scorer, prep QueryPreparer, filter *Filter, cfg Config,
) *Service {
	cfg.applyDefaults()
	return &Service{
		provider: provider,
		fetcher:  fetcher,
		gen:      gen,
		scorer:   scorer,
		prep:     prep,
		filter:   filter,
		cfg:      cfg,
	}
}

// Search runs the full pipeline for a legal query and returns ranked,
// filtered results together with run statistics. Results below minRelevancy
// are dropped; an empty return with a nil error means nothing relevant was
// found.
func (s *Service) Search(
	ctx context.Context, query string, maxResults int, minRelevancy float64,
) ([]*result.Result, *Stats, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if maxResults < 1 {
		maxResults = 15
	}
	if minRelevancy < 0 {
		minRelevancy = 0
	}

	prepped := s.prep.Preprocess(query)
	if prepped == "" {
		return nil, nil, fmt.Errorf("%w: query is empty after normalization", domain.ErrInvalidQuery)
	}

	sess := newSession(query, prepped)
	sess.queries = s.expandQueries(ctx, query)
	sess.iterations = 1

	perQuery := maxResults / len(sess.queries)
	if perQuery < 1 {
		perQuery = 1
	}
	searchErr := s.collect(ctx, sess, sess.queries, perQuery)

	if sess.len() == 0 {
		log.Info("expanded queries produced nothing, falling back to direct search",
			zap.String("query", prepped),
		)
		sess.fallback = true
		fallbackErr := s.collect(ctx, sess, []string{prepped}, maxResults)

		if sess.len() == 0 && (searchErr != nil || fallbackErr != nil) {
			metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
			if fallbackErr != nil {
				return nil, nil, fallbackErr
			}
			return nil, nil, searchErr
		}
	}

	batch := sess.first(maxResults)
	s.fetchContent(ctx, batch)
	scored := s.scorer.ScoreAndRank(ctx, query, batch)
	avg := averageRelevancy(scored)

	if s.shouldRefine(ctx, avg, len(scored), maxResults) {
		s.refine(ctx, sess, query, scored, avg, maxResults)
	}

	final := s.scorer.ScoreAndRank(ctx, query, sess.results())
	finalAvg := averageRelevancy(final)
	selected := dropBelow(s.filter.Select(final, maxResults), minRelevancy)

	stats := &Stats{
		Status:           statusOf(selected, sess),
		ExpandedQueries:  sess.queries,
		Iterations:       sess.iterations,
		Refined:          sess.refined,
		UsedFallback:     sess.fallback,
		AverageRelevancy: finalAvg,
		TotalCollected:   sess.len(),
		SourceCounts:     countSources(selected),
		Elapsed:          time.Since(start),
	}

	metrics.SearchRequestsTotal.WithLabelValues(stats.Status).Inc()
	metrics.SearchDuration.Observe(stats.Elapsed.Seconds())
	metrics.SearchResultsReturned.Observe(float64(len(selected)))

	log.Info("search completed",
		zap.String("status", stats.Status),
		zap.Int("returned", len(selected)),
		zap.Int("collected", stats.TotalCollected),
		zap.Int("iterations", stats.Iterations),
		zap.Float64("avg_relevancy", stats.AverageRelevancy),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return selected, stats, nil
}

// collect runs the queries concurrently and folds results into the session.
// Individual query failures are logged and absorbed; the last one is
// returned so a total failure can be surfaced.
func (s *Service) collect(ctx context.Context, sess *session, queries []string, perQuery int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SearchConcurrency)

	var mu sync.Mutex
	var lastErr error

	for _, q := range queries {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, s.cfg.SearchTimeout)
			defer cancel()

			found, err := s.provider.Search(sctx, q, "", perQuery)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				logger.FromContext(ctx).Warn("search query failed",
					zap.String("expanded_query", q),
					zap.Error(err),
				)
				return nil
			}
			for _, r := range found {
				sess.add(r)
			}
			return nil
		})
	}

	_ = g.Wait()
	return lastErr
}

// fetchContent loads page text for results that have none yet. A failed
// fetch keeps the snippet and marks the result instead of dropping it.
func (s *Service) fetchContent(ctx context.Context, batch []*result.Result) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)

	for _, r := range batch {
		if _, failed := r.Meta("fetch_error"); failed || r.Content() != "" {
			continue
		}
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, s.cfg.FetchTimeout)
			defer cancel()

			content, err := s.fetcher.Fetch(fctx, r.URL())
			if err != nil {
				r.SetMeta("fetch_error", err.Error())
				logger.FromContext(ctx).Debug("content fetch failed, keeping snippet",
					zap.String("url", r.URL()),
					zap.Error(err),
				)
				return nil
			}
			r.SetContent(content)
			return nil
		})
	}

	_ = g.Wait()
}

// shouldRefine decides whether a second iteration is worth running. It is
// skipped when no generator is wired, the context is done, or the remaining
// deadline cannot fit another generation round.
func (s *Service) shouldRefine(ctx context.Context, avg float64, count, maxResults int) bool {
	if s.gen == nil {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < s.cfg.GenerateTimeout {
		return false
	}

	coverage := int(math.Ceil(s.cfg.CoverageRatio * float64(maxResults)))
	return avg < s.cfg.RefineAvgThreshold || count < coverage
}

// refine runs one gap-filling iteration, appending new results to the
// session.
func (s *Service) refine(
	ctx context.Context, sess *session, query string,
	scored []*result.Result, avg float64, maxResults int,
) {
	queries := s.refineQueries(ctx, query, scored, avg)
	if len(queries) == 0 {
		return
	}

	metrics.SearchRefinementsTotal.Inc()
	sess.refined = true
	sess.iterations++
	sess.queries = append(sess.queries, queries...)

	before := sess.len()
	perQuery := maxResults / len(queries)
	if perQuery < 1 {
		perQuery = 1
	}
	s.collect(ctx, sess, queries, perQuery)

	added := sess.results()[before:]
	if len(added) > maxResults {
		added = added[:maxResults]
	}
	s.fetchContent(ctx, added)
}

func statusOf(selected []*result.Result, sess *session) string {
	switch {
	case len(selected) == 0:
		return StatusNoResults
	case sess.fallback:
		return StatusFallbackSuccess
	default:
		return StatusSuccess
	}
}

func averageRelevancy(results []*result.Result) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range results {
		total += r.Scores().Combined
	}
	return total / float64(len(results))
}

func dropBelow(results []*result.Result, minRelevancy float64) []*result.Result {
	kept := results[:0]
	for _, r := range results {
		if r.Scores().Combined >= minRelevancy {
			kept = append(kept, r)
		}
	}
	return kept
}

func countSources(results []*result.Result) map[string]int {
	counts := make(map[string]int, 2)
	for _, r := range results {
		counts[r.Source()]++
	}
	return counts
}
