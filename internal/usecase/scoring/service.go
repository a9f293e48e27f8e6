package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain/legal"
	"github.com/sofialex/pravex/internal/domain/result"
	"github.com/sofialex/pravex/internal/logger"
	"github.com/sofialex/pravex/internal/metrics"
)

const (
	// titleBoostPerTerm is added for every query term found in the title.
	titleBoostPerTerm = 0.1
	titleBoostCap     = 0.5

	// confidenceLift maps the combined score onto a slightly optimistic
	// confidence estimate.
	confidenceLift = 1.2

	defaultBM25Ceiling = 10.0
)

// Service fuses lexical, semantic, legal-context, authority, and title
// signals into a single combined relevance score and ranks result sets.
type Service struct {
	pre         *Preprocessor
	bm25        *BM25
	semantic    *Semantic
	classifier  *legal.Classifier
	authority   *legal.AuthorityTable
	weights     Weights
	bm25Ceiling float64
}

// New creates a scoring service. Weights are validated up front so a
// misconfigured fusion cannot silently skew every ranking.
func New(
	pre *Preprocessor, bm25 *BM25, semantic *Semantic,
	classifier *legal.Classifier, authority *legal.AuthorityTable,
	weights Weights,
) (*Service, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return &Service{
		pre:         pre,
		bm25:        bm25,
		semantic:    semantic,
		classifier:  classifier,
		authority:   authority,
		weights:     weights,
		bm25Ceiling: defaultBM25Ceiling,
	}, nil
}

// WithBM25Ceiling overrides the raw BM25 value treated as a full-strength
// lexical match. Non-positive values keep the current ceiling.
func (s *Service) WithBM25Ceiling(ceiling float64) *Service {
	if ceiling > 0 {
		s.bm25Ceiling = ceiling
	}
	return s
}

// Preprocess exposes query normalization for callers that need to search
// with the cleaned query.
func (s *Service) Preprocess(query string) string {
	return s.pre.Preprocess(query)
}

// ClassifyQuery classifies a raw query after normalization.
func (s *Service) ClassifyQuery(query string) legal.Classification {
	return s.classifier.Classify(s.pre.Preprocess(query))
}

// ScoreAndRank scores every result against the query and reorders the slice
// by combined score, best first. The order of equally scored results is
// preserved. An empty batch is returned as is.
func (s *Service) ScoreAndRank(ctx context.Context, query string, results []*result.Result) []*result.Result {
	if len(results) == 0 {
		return results
	}
	start := time.Now()

	processed := s.pre.Preprocess(query)
	queryTerms := strings.Fields(processed)
	queryClass := s.classifier.Classify(processed)
	avgDocLength := averageDocLength(results)

	for _, r := range results {
		r.SetScores(s.score(ctx, processed, queryTerms, queryClass, r, avgDocLength))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores().Combined > results[j].Scores().Combined
	})

	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	logger.FromContext(ctx).Debug("scored results",
		zap.Int("count", len(results)),
		zap.String("query_domain", string(queryClass.Domain)),
		zap.Float64("top_score", results[0].Scores().Combined),
	)
	return results
}

func (s *Service) score(
	ctx context.Context, query string, queryTerms []string,
	queryClass legal.Classification, r *result.Result, avgDocLength float64,
) result.Scores {
	full := r.FullText()

	bm := s.bm25.Score(queryTerms, full, avgDocLength)
	sem := clamp01(s.semantic.Similarity(ctx, query, full))
	docClass := s.classifier.Classify(full)
	ctxScore := s.classifier.ContextScore(queryClass, docClass)
	auth := s.authority.Score(r.URL())
	boost := titleBoost(queryTerms, r.Title())

	combined := s.weights.BM25*clamp01(bm/s.bm25Ceiling) +
		s.weights.Semantic*sem +
		s.weights.LegalContext*ctxScore +
		s.weights.DomainAuthority*auth +
		s.weights.TitleBoost*boost

	confidence := combined * confidenceLift
	if confidence > 1 {
		confidence = 1
	}

	return result.Scores{
		BM25:            bm,
		Semantic:        sem,
		LegalContext:    ctxScore,
		DomainAuthority: auth,
		TitleBoost:      boost,
		Combined:        combined,
		Confidence:      confidence,
		LegalDomain:     docClass.Domain,
		LegalConfidence: docClass.Confidence,
	}
}

// titleBoost rewards query terms appearing in the result title, capped so a
// keyword-stuffed title cannot dominate.
func titleBoost(queryTerms []string, title string) float64 {
	lower := strings.ToLower(title)

	boost := 0.0
	for _, term := range queryTerms {
		if strings.Contains(lower, term) {
			boost += titleBoostPerTerm
		}
	}
	if boost > titleBoostCap {
		boost = titleBoostCap
	}
	return boost
}

// averageDocLength is the mean whitespace-token count across the batch,
// guarded to a neutral default for degenerate batches.
func averageDocLength(results []*result.Result) float64 {
	total := 0
	for _, r := range results {
		total += len(strings.Fields(r.FullText()))
	}
	if total == 0 {
		return defaultAvgDocLength
	}
	return float64(total) / float64(len(results))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
