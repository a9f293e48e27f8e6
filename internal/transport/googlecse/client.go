// Package googlecse implements a search engine adapter for the Google Custom
// Search JSON API.
package googlecse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/result"
)

const (
	defaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	defaultTimeout = 12 * time.Second
	defaultRetries = 3

	// The API returns at most 10 items per request.
	maxPageSize     = 10
	defaultPageSize = 8

	sourceLabel = "google_cse"

	// legalSuffix biases ranking toward statutes and case law.
	legalSuffix = " закон право юридически"
)

// Results are restricted to Bulgarian-language pages with Bulgarian geotargeting.
const (
	countryCode  = "bg"
	languageCode = "lang_bg"
)

// Client queries the Google Custom Search JSON API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	cx          string
	legalSuffix bool
	attempts    uint
	logger      *zap.Logger
}

// Config holds the Google CSE settings.
type Config struct {
	APIKey        string
	CX            string
	BaseURL       string
	LegalSuffix   bool
	Timeout       time.Duration
	RetryAttempts uint
	Logger        *zap.Logger
}

// New creates a Google CSE search client.
func New(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, errors.New("google cse requires an api key and a search engine id")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetries
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		cx:          cfg.CX,
		legalSuffix: cfg.LegalSuffix,
		attempts:    attempts,
		logger:      cfg.Logger,
	}, nil
}

// searchResponse mirrors the fields requested via the fields parameter.
type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// Search runs one query against the API. Quota exhaustion maps to
// domain.ErrRateLimited so the engine chain can fall through to the next
// provider; everything else maps to domain.ErrSearchProviderError.
func (c *Client) Search(ctx context.Context, query, siteFilter string, limit int) ([]*result.Result, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	q := query
	if c.legalSuffix {
		q += legalSuffix
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(min(limit, maxPageSize)))
	params.Set("gl", countryCode)
	params.Set("lr", languageCode)
	params.Set("safe", "off")
	params.Set("filter", "1")
	params.Set("fields", "items(title,link,snippet),searchInformation(totalResults)")
	if siteFilter != "" {
		params.Set("siteSearch", siteFilter)
		params.Set("siteSearchFilter", "i")
	}

	var payload searchResponse
	err := retry.Do(
		func() error {
			var page searchResponse
			if err := c.get(ctx, params, &page); err != nil {
				return err
			}
			payload = page
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying Google CSE request",
				zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	results := make([]*result.Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		r, err := result.New(item.Title, item.Link, item.Snippet, sourceLabel)
		if err != nil {
			c.logger.Debug("Skipping malformed search item", zap.Error(err))
			continue
		}
		results = append(results, r)
	}

	c.logger.Debug("Google CSE search completed",
		zap.Int("results", len(results)),
		zap.String("total_available", payload.SearchInformation.TotalResults))

	return results, nil
}

// get performs one API request. Accept-Encoding stays unset so the transport
// negotiates gzip and decompresses transparently.
func (c *Client) get(ctx context.Context, params url.Values, out *searchResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pravex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("google cse returned %d: %s", e.code, e.body)
}

// isRetryable limits retries to server-side failures and transport errors.
// Quota errors fall through immediately so the next engine gets a chance.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}

func classifyError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		if se.code == http.StatusTooManyRequests || se.code == http.StatusForbidden {
			return fmt.Errorf("google cse quota error %d: %s: %w", se.code, se.body, domain.ErrRateLimited)
		}
		return fmt.Errorf("google cse error %d: %s: %w", se.code, se.body, domain.ErrSearchProviderError)
	}
	return fmt.Errorf("google cse request failed: %v: %w", err, domain.ErrSearchProviderError)
}
