// Package result holds the canonical search result record. Provider adapters
// construct it at the boundary; the scoring pipeline enriches it in place;
// everything downstream reads it.
package result

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sofialex/pravex/internal/domain/legal"
)

// Result is one retrieved search candidate with its relevancy breakdown.
type Result struct {
	title    string
	url      string
	snippet  string
	content  string
	source   string
	domain   string
	metadata map[string]any
	scores   Scores
}

// Scores is the relevancy breakdown attached by the scoring pipeline.
// Combined is recomputed whole on every scoring pass, never adjusted
// incrementally; Confidence is monotone non-decreasing in Combined.
type Scores struct {
	BM25            float64
	Semantic        float64
	LegalContext    float64
	DomainAuthority float64
	TitleBoost      float64
	Combined        float64
	Confidence      float64
	LegalDomain     legal.Domain
	LegalConfidence float64
}

// New creates a result from a provider item. The URL must parse and carry a
// host — a result without a resolvable URL cannot be de-duplicated or
// deep-fetched and is rejected here rather than somewhere down the pipeline.
func New(title, rawURL, snippet, source string) (*Result, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("result %q: empty url", title)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("result %q: parse url: %w", title, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("result %q: url %q has no host", title, trimmed)
	}

	return &Result{
		title:   strings.TrimSpace(title),
		url:     trimmed,
		snippet: strings.TrimSpace(snippet),
		source:  source,
		domain:  strings.ToLower(u.Hostname()),
	}, nil
}

// Title returns the result title.
func (r *Result) Title() string { return r.title }

// URL returns the result URL, the identity within a result set.
func (r *Result) URL() string { return r.url }

// Snippet returns the search engine snippet.
func (r *Result) Snippet() string { return r.snippet }

// Content returns the deep-fetched page text, empty until a fetch succeeds.
func (r *Result) Content() string { return r.content }

// Source returns the label of the engine that produced this result.
func (r *Result) Source() string { return r.source }

// Domain returns the lowercased host extracted from the URL.
func (r *Result) Domain() string { return r.domain }

// Scores returns the relevancy breakdown.
func (r *Result) Scores() Scores { return r.scores }

// SetContent replaces the thin snippet body with deep-fetched page text.
func (r *Result) SetContent(text string) { r.content = text }

// SetScores replaces the whole relevancy breakdown.
func (r *Result) SetScores(s Scores) { r.scores = s }

// SetMeta records a free-form metadata entry (fetch status, timing).
func (r *Result) SetMeta(key string, value any) {
	if r.metadata == nil {
		r.metadata = make(map[string]any)
	}
	r.metadata[key] = value
}

// Meta returns a metadata entry and whether it is present.
func (r *Result) Meta(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// FullText joins title, snippet and content for text analysis.
func (r *Result) FullText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.title, r.snippet, r.content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
