package domain

import "errors"

var (
	// ErrInvalidQuery signals a query that cannot be searched (empty or too short).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchProviderError signals a search engine call failure.
	ErrSearchProviderError = errors.New("search provider error")
	// ErrRateLimited signals a rate limit hit on an external provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrFetchFailed signals a page content fetch failure.
	ErrFetchFailed = errors.New("content fetch failed")
	// ErrGenerationFailed signals a text generation provider failure.
	ErrGenerationFailed = errors.New("text generation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
