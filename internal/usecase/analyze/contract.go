package analyze

import "context"

// Fetcher retrieves readable page text for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
