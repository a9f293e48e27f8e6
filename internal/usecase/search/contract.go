package search

import (
	"context"

	"github.com/sofialex/pravex/internal/domain/legal"
	"github.com/sofialex/pravex/internal/domain/result"
)

// Provider executes a single web search. siteFilter restricts results to one
// host when non-empty; limit caps the number of results.
type Provider interface {
	Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error)
}

// Fetcher retrieves readable page text for deep content analysis.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Generator produces free-form text from a prompt, used for query expansion
// and refinement.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Scorer ranks a result batch against a query, best first.
type Scorer interface {
	ScoreAndRank(ctx context.Context, query string, results []*result.Result) []*result.Result
}

// QueryPreparer normalizes raw user queries.
type QueryPreparer interface {
	Preprocess(query string) string
	ClassifyQuery(query string) legal.Classification
}
