package search

import (
	"time"

	"github.com/sofialex/pravex/internal/domain/result"
)

// session accumulates results across search iterations, de-duplicating by
// URL. The first occurrence of a URL wins and insertion order is preserved.
type session struct {
	original  string
	effective string

	order []string
	byURL map[string]*result.Result

	queries    []string
	iterations int
	refined    bool
	fallback   bool
}

func newSession(original, effective string) *session {
	return &session{
		original:  original,
		effective: effective,
		byURL:     make(map[string]*result.Result),
	}
}

// add records a result unless its URL was already seen.
func (s *session) add(r *result.Result) bool {
	url := r.URL()
	if url == "" {
		return false
	}
	if _, seen := s.byURL[url]; seen {
		return false
	}
	s.byURL[url] = r
	s.order = append(s.order, url)
	return true
}

func (s *session) len() int {
	return len(s.order)
}

// results returns all accumulated results in first-seen order.
func (s *session) results() []*result.Result {
	out := make([]*result.Result, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, s.byURL[url])
	}
	return out
}

// first returns up to n results in first-seen order.
func (s *session) first(n int) []*result.Result {
	if n > len(s.order) {
		n = len(s.order)
	}
	out := make([]*result.Result, 0, n)
	for _, url := range s.order[:n] {
		out = append(out, s.byURL[url])
	}
	return out
}

// Search outcome statuses.
const (
	StatusSuccess         = "success"
	StatusFallbackSuccess = "fallback_success"
	StatusNoResults       = "no_results"
)

// Stats describes how an orchestrated search ran.
type Stats struct {
	Status           string         `json:"status"`
	ExpandedQueries  []string       `json:"expanded_queries"`
	Iterations       int            `json:"iterations"`
	Refined          bool           `json:"refined"`
	UsedFallback     bool           `json:"used_fallback"`
	AverageRelevancy float64        `json:"average_relevancy"`
	TotalCollected   int            `json:"total_collected"`
	SourceCounts     map[string]int `json:"source_counts"`
	Elapsed          time.Duration  `json:"-"`
}
