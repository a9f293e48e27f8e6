// Package duckduckgo implements a search engine adapter scraping the
// DuckDuckGo HTML endpoint. It needs no API key and serves as the fallback
// engine when Google CSE is unavailable or out of quota.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/result"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com/html/"
	defaultTimeout = 12 * time.Second

	regionCode  = "bg-bg"
	maxResults  = 8
	sourceLabel = "duckduckgo_html"

	// The HTML endpoint serves an interstitial to clients without a browser UA.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client scrapes the DuckDuckGo HTML search page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// Config holds the DuckDuckGo client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a DuckDuckGo search client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     cfg.Logger,
	}
}

// Search scrapes one results page. There is no site parameter, so a site
// filter becomes a site: operator in the query.
func (c *Client) Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}

	q := query
	if siteFilter != "" {
		q = "site:" + siteFilter + " " + query
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("kl", regionCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "bg-BG,bg;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search: %v: %w", err, domain.ErrSearchProviderError)
	}
	defer resp.Body.Close()

	// The endpoint answers 202 (occasionally 403) when it blocks a scraper.
	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusForbidden, http.StatusTooManyRequests:
		return nil, fmt.Errorf("duckduckgo returned %d: %w", resp.StatusCode, domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %d: %w", resp.StatusCode, domain.ErrSearchProviderError)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %v: %w", err, domain.ErrSearchProviderError)
	}

	results := c.extractResults(doc, limit)

	c.logger.Debug("DuckDuckGo search completed", zap.Int("results", len(results)))

	return results, nil
}

func (c *Client) extractResults(doc *goquery.Document, limit int) []*result.Result {
	var results []*result.Result

	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}

		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}

		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		r, err := result.New(title, resolveRedirect(href), snippet, sourceLabel)
		if err != nil {
			c.logger.Debug("Skipping malformed search item", zap.Error(err))
			return true
		}

		results = append(results, r)
		return len(results) < limit
	})

	return results
}

// resolveRedirect unwraps the /l/?uddg= tracking redirect to the target URL.
// Query() returns the target already percent-decoded.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.HasPrefix(u.Path, "/l/") {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
