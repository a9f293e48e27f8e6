package websearch

import (
	"context"
	"fmt"
	"testing"

	"github.com/sofialex/pravex/internal/domain/result"
)

// call records one delegated search.
type call struct {
	query      string
	siteFilter string
	limit      int
}

type fakeEngine struct {
	calls []call
	fn    func(query, siteFilter string, limit int) ([]*result.Result, error)
}

func (f *fakeEngine) Search(_ context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	f.calls = append(f.calls, call{query, siteFilter, limit})
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(query, siteFilter, limit)
}

func makeResults(t *testing.T, host string, n int) []*result.Result {
	t.Helper()
	out := make([]*result.Result, 0, n)
	for i := 0; i < n; i++ {
		r, err := result.New("Заглавие", fmt.Sprintf("https://%s/doc/%d", host, i), "откъс", "google_cse")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, r)
	}
	return out
}
