package search

import (
	"testing"

	"github.com/sofialex/pravex/internal/domain/result"
)

func sessionResult(t *testing.T, url string) *result.Result {
	t.Helper()
	r, err := result.New("заглавие", url, "откъс", "duckduckgo_html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestSession_AddDedupesByURL(t *testing.T) {
	s := newSession("въпрос", "въпрос")

	if !s.add(sessionResult(t, "https://a.bg/1")) {
		t.Error("first add returned false")
	}
	if s.add(sessionResult(t, "https://a.bg/1")) {
		t.Error("duplicate URL accepted")
	}
	if !s.add(sessionResult(t, "https://a.bg/2")) {
		t.Error("distinct URL rejected")
	}

	if s.len() != 2 {
		t.Errorf("len() = %d, want 2", s.len())
	}
}

func TestSession_ResultsPreserveFirstSeenOrder(t *testing.T) {
	s := newSession("въпрос", "въпрос")
	urls := []string{"https://a.bg/3", "https://a.bg/1", "https://a.bg/2"}
	for _, u := range urls {
		s.add(sessionResult(t, u))
	}

	got := s.results()
	for i, u := range urls {
		if got[i].URL() != u {
			t.Errorf("results()[%d] = %q, want %q", i, got[i].URL(), u)
		}
	}
}

func TestSession_First(t *testing.T) {
	s := newSession("въпрос", "въпрос")
	for _, u := range []string{"https://a.bg/1", "https://a.bg/2", "https://a.bg/3"} {
		s.add(sessionResult(t, u))
	}

	if got := s.first(2); len(got) != 2 || got[1].URL() != "https://a.bg/2" {
		t.Errorf("first(2) = %v", got)
	}
	if got := s.first(10); len(got) != 3 {
		t.Errorf("first(10) returned %d, want all 3", len(got))
	}
	if got := s.first(0); len(got) != 0 {
		t.Errorf("first(0) returned %d", len(got))
	}
}
