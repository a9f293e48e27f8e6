// Package gemini provides an embedding transport backed by the Google
// Generative AI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/metrics"
)

const (
	providerLabel        = "gemini"
	defaultRetryAttempts = 3
)

// Embedder is an embedding provider using the Gemini API.
type Embedder struct {
	client   *genai.Client
	model    *genai.EmbeddingModel
	name     string
	attempts uint
	logger   *zap.Logger
}

// Config holds the Gemini embedding provider settings.
type Config struct {
	APIKey        string
	Model         string
	RetryAttempts uint
	Logger        *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider. The caller owns the client
// and must Close it on shutdown.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}

	return &Embedder{
		client:   client,
		model:    client.EmbeddingModel(cfg.Model),
		name:     cfg.Model,
		attempts: attempts,
		logger:   cfg.Logger,
	}, nil
}

// Embed implements domain.Embedder. The Gemini API reports no token usage, so
// both token counts stay zero.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	var res *genai.EmbedContentResponse
	err := retry.Do(
		func() error {
			var err error
			res, err = e.model.EmbedContent(ctx, genai.Text(text))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Warn("Retrying Gemini embedding request",
				zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, e.name, "api_error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("gemini embedding: %v: %w", err, domain.ErrEmbeddingProviderError)
	}

	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.name, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerLabel, e.name, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty gemini embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerLabel, e.name).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: res.Embedding.Values}, nil
}

// HealthCheck verifies API availability by listing the first available model.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	iter := e.client.ListModels(ctx)
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (e *Embedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
