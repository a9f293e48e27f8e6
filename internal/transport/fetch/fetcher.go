// Package fetch retrieves pages and reduces them to readable text for deep
// content analysis.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/metrics"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxRunes = 4000

	// Pages past this size are truncated before parsing.
	maxBodyBytes = 2 << 20

	// Legal portals serve bot-looking clients a captcha or an empty shell.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher downloads a page and extracts its text content.
type Fetcher struct {
	httpClient *http.Client
	maxRunes   int
	userAgent  string
	logger     *zap.Logger
}

// Config holds the fetcher settings.
type Config struct {
	Timeout   time.Duration
	MaxRunes  int
	UserAgent string
	Logger    *zap.Logger
}

// New creates a page fetcher.
func New(cfg *Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRunes := cfg.MaxRunes
	if maxRunes <= 0 {
		maxRunes = defaultMaxRunes
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxRunes:   maxRunes,
		userAgent:  userAgent,
		logger:     cfg.Logger,
	}
}

// Fetch implements the fetcher contract of the search and analyze usecases.
// All failures wrap domain.ErrFetchFailed; callers degrade to snippet-only
// scoring.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	start := time.Now()

	text, err := f.fetch(ctx, pageURL)

	duration := time.Since(start)

	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.FetchRequestsTotal.WithLabelValues("success").Inc()
	metrics.FetchDuration.Observe(duration.Seconds())

	f.logger.Debug("Fetched page content",
		zap.String("url", pageURL),
		zap.Int("chars", len(text)),
		zap.Duration("duration", duration))

	return text, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %v: %w", err, domain.ErrFetchFailed)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "bg-BG,bg;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %v: %w", err, domain.ErrFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page returned %d: %w", resp.StatusCode, domain.ErrFetchFailed)
	}

	// PDFs and images are common on court portals; snippet-only scoring
	// handles those results.
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("unsupported content type %q: %w", contentType, domain.ErrFetchFailed)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse page: %v: %w", err, domain.ErrFetchFailed)
	}

	return extractText(doc, f.maxRunes), nil
}

// extractText strips non-content elements and normalizes whitespace.
func extractText(doc *goquery.Document, maxRunes int) string {
	doc.Find("script, style, nav, footer, header, aside").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return text
}
