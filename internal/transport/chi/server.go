// Package chi exposes the legal search pipeline over HTTP: orchestrated
// search, single-document analysis, the practice area reference tables, and
// health. Handlers are plain http.HandlerFunc methods; the router is
// assembled in main.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/legal"
	"github.com/sofialex/pravex/internal/domain/result"
	analyzeuc "github.com/sofialex/pravex/internal/usecase/analyze"
	healthuc "github.com/sofialex/pravex/internal/usecase/health"
	scoringuc "github.com/sofialex/pravex/internal/usecase/scoring"
	searchuc "github.com/sofialex/pravex/internal/usecase/search"
)

// Request bounds for POST /api/search. Out-of-range values are clamped, not
// rejected.
const (
	minQueryRunes = 3

	defaultMaxResults = 15
	minMaxResults     = 5
	maxMaxResults     = 50

	defaultMinRelevancy = 0.3
	minMinRelevancy     = 0.1
	maxMinRelevancy     = 0.9

	// contentPreviewRunes caps the fetched page text echoed per result.
	contentPreviewRunes = 500
)

// errorCode classifies an API error in the JSON error envelope.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeInvalidQuery     errorCode = "invalid_query"
	codeRateLimited      errorCode = "rate_limited"
	codeProviderError    errorCode = "search_provider_error"
	codeFetchFailed      errorCode = "fetch_failed"
	codeGenerationError  errorCode = "generation_failed"
	codeEmbeddingError   errorCode = "embedding_provider_error"
	codeUnauthorized     errorCode = "unauthorized"
	codeInternalError    errorCode = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server handles the pravex HTTP API.
type Server struct {
	search        *searchuc.Service
	analyzer      *analyzeuc.Service
	health        *healthuc.Service
	taxonomy      *legal.Taxonomy
	authority     *legal.AuthorityTable
	weights       scoringuc.Weights
	logger        *zap.Logger
	errorHandlers []errorHandler

	defaultMaxResults   int
	defaultMinRelevancy float64
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	analyzer *analyzeuc.Service,
	health *healthuc.Service,
	taxonomy *legal.Taxonomy,
	authority *legal.AuthorityTable,
	weights scoringuc.Weights,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		analyzer:  analyzer,
		health:    health,
		taxonomy:  taxonomy,
		authority: authority,
		weights:   weights,
		logger:    logger,

		defaultMaxResults:   defaultMaxResults,
		defaultMinRelevancy: defaultMinRelevancy,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrSearchProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrFetchFailed, http.StatusBadGateway, codeFetchFailed),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError),
	}
	return s
}

// WithSearchDefaults overrides the max_results and min_relevancy applied to
// requests that omit them. Out-of-range values keep the current defaults.
func (s *Server) WithSearchDefaults(maxResults int, minRelevancy float64) *Server {
	if maxResults >= minMaxResults && maxResults <= maxMaxResults {
		s.defaultMaxResults = maxResults
	}
	if minRelevancy >= minMinRelevancy && minRelevancy <= maxMinRelevancy {
		s.defaultMinRelevancy = minRelevancy
	}
	return s
}

type searchRequest struct {
	Query        string   `json:"query"`
	MaxResults   *int     `json:"max_results"`
	MinRelevancy *float64 `json:"min_relevancy"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	Results      []searchResultItem `json:"results"`
	TotalResults int                `json:"total_results"`
	SearchTimeMs int64              `json:"search_time_ms"`
	Status       string             `json:"status"`
	Message      string             `json:"message,omitempty"`
	Metadata     searchMetadata     `json:"metadata"`
}

type searchResultItem struct {
	Title   string       `json:"title"`
	URL     string       `json:"url"`
	Snippet string       `json:"snippet"`
	Content string       `json:"content,omitempty"`
	Domain  string       `json:"domain"`
	Source  string       `json:"source"`
	Scores  resultScores `json:"scores"`
}

type resultScores struct {
	BM25            float64 `json:"bm25"`
	Semantic        float64 `json:"semantic"`
	LegalContext    float64 `json:"legal_context"`
	DomainAuthority float64 `json:"domain_authority"`
	TitleBoost      float64 `json:"title_boost"`
	Combined        float64 `json:"combined"`
	Confidence      float64 `json:"confidence"`
	LegalDomain     string  `json:"legal_domain"`
	LegalConfidence float64 `json:"legal_confidence"`
}

type searchMetadata struct {
	ExpandedQueries  []string       `json:"expanded_queries"`
	Iterations       int            `json:"iterations"`
	Refined          bool           `json:"refined"`
	UsedFallback     bool           `json:"used_fallback"`
	AverageRelevancy float64        `json:"average_relevancy"`
	TotalCollected   int            `json:"total_collected"`
	SourceCounts     map[string]int `json:"source_counts"`
}

type analyzeRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type domainsResponse struct {
	Domains   []domainEntry      `json:"domains"`
	Authority map[string]float64 `json:"authority"`
	Weights   fusionWeights      `json:"fusion_weights"`
}

type domainEntry struct {
	Domain   string   `json:"domain"`
	Weight   float64  `json:"weight"`
	Keywords []string `json:"keywords"`
}

type fusionWeights struct {
	BM25            float64 `json:"bm25"`
	Semantic        float64 `json:"semantic"`
	LegalContext    float64 `json:"legal_context"`
	DomainAuthority float64 `json:"domain_authority"`
	TitleBoost      float64 `json:"title_boost"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(query) < minQueryRunes {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("query must be at least %d characters", minQueryRunes))
		return
	}

	maxResults := s.defaultMaxResults
	if req.MaxResults != nil {
		maxResults = clampInt(*req.MaxResults, minMaxResults, maxMaxResults)
	}
	minRelevancy := s.defaultMinRelevancy
	if req.MinRelevancy != nil {
		minRelevancy = clampFloat(*req.MinRelevancy, minMinRelevancy, maxMinRelevancy)
	}

	results, stats, err := s.search.Search(r.Context(), query, maxResults, minRelevancy)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(query, results, stats))
}

// Analyze handles POST /api/analyze. The body carries either a URL to fetch
// or inline text, never both.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	url := strings.TrimSpace(req.URL)
	text := strings.TrimSpace(req.Text)
	if (url == "") == (text == "") {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "provide exactly one of url or text")
		return
	}

	var report *analyzeuc.Report
	if url != "" {
		var err error
		report, err = s.analyzer.AnalyzeURL(r.Context(), url)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
	} else {
		report = s.analyzer.AnalyzeText(r.Context(), text)
	}

	if report.Citations == nil {
		report.Citations = []legal.Citation{}
	}
	writeJSON(w, http.StatusOK, report)
}

// Domains handles GET /api/domains: the static practice area taxonomy,
// source authority table, and fusion weights for clients that want to
// explain a ranking.
func (s *Server) Domains(w http.ResponseWriter, r *http.Request) {
	entries := s.taxonomy.Entries()
	domains := make([]domainEntry, len(entries))
	for i, e := range entries {
		domains[i] = domainEntry{
			Domain:   string(e.Domain),
			Weight:   e.Weight,
			Keywords: e.Keywords,
		}
	}

	hosts := s.authority.Hosts()
	authority := make(map[string]float64, len(hosts))
	for _, h := range hosts {
		if weight, ok := s.authority.Weight(h); ok {
			authority[h] = weight
		}
	}

	writeJSON(w, http.StatusOK, domainsResponse{
		Domains:   domains,
		Authority: authority,
		Weights: fusionWeights{
			BM25:            s.weights.BM25,
			Semantic:        s.weights.Semantic,
			LegalContext:    s.weights.LegalContext,
			DomainAuthority: s.weights.DomainAuthority,
			TitleBoost:      s.weights.TitleBoost,
		},
	})
}

// HealthCheck handles GET /api/health. It answers 200 whenever the process
// serves; failing dependencies surface in the per-check results, not in the
// HTTP status.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func searchResponseFrom(query string, results []*result.Result, stats *searchuc.Stats) searchResponse {
	items := make([]searchResultItem, len(results))
	for i, r := range results {
		items[i] = resultToItem(r)
	}

	resp := searchResponse{
		Query:        query,
		Results:      items,
		TotalResults: len(items),
		SearchTimeMs: stats.Elapsed.Milliseconds(),
		Status:       stats.Status,
		Metadata: searchMetadata{
			ExpandedQueries:  stats.ExpandedQueries,
			Iterations:       stats.Iterations,
			Refined:          stats.Refined,
			UsedFallback:     stats.UsedFallback,
			AverageRelevancy: stats.AverageRelevancy,
			TotalCollected:   stats.TotalCollected,
			SourceCounts:     stats.SourceCounts,
		},
	}
	if stats.Status == searchuc.StatusNoResults {
		resp.Message = "no results matched the relevancy threshold"
	}
	return resp
}

func resultToItem(r *result.Result) searchResultItem {
	sc := r.Scores()
	return searchResultItem{
		Title:   r.Title(),
		URL:     r.URL(),
		Snippet: r.Snippet(),
		Content: runePrefix(r.Content(), contentPreviewRunes),
		Domain:  r.Domain(),
		Source:  r.Source(),
		Scores: resultScores{
			BM25:            sc.BM25,
			Semantic:        sc.Semantic,
			LegalContext:    sc.LegalContext,
			DomainAuthority: sc.DomainAuthority,
			TitleBoost:      sc.TitleBoost,
			Combined:        sc.Combined,
			Confidence:      sc.Confidence,
			LegalDomain:     string(sc.LegalDomain),
			LegalConfidence: sc.LegalConfidence,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrRateLimited,
		domain.ErrSearchProviderError,
		domain.ErrFetchFailed,
		domain.ErrGenerationFailed,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func clampInt(v, low, high int) int {
	switch {
	case v < low:
		return low
	case v > high:
		return high
	}
	return v
}

func clampFloat(v, low, high float64) float64 {
	switch {
	case v < low:
		return low
	case v > high:
		return high
	}
	return v
}

func runePrefix(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
