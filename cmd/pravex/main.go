package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sofialex/pravex/internal/config"
	"github.com/sofialex/pravex/internal/version"
	"github.com/sofialex/pravex/internal/domain"
	"github.com/sofialex/pravex/internal/domain/legal"
	"github.com/sofialex/pravex/internal/kv"
	logpkg "github.com/sofialex/pravex/internal/logger"
	"github.com/sofialex/pravex/internal/metrics"
	"github.com/sofialex/pravex/internal/repository/embcache"
	"github.com/sofialex/pravex/internal/repository/websearch"
	chiTransport "github.com/sofialex/pravex/internal/transport/chi"
	"github.com/sofialex/pravex/internal/transport/duckduckgo"
	"github.com/sofialex/pravex/internal/transport/fetch"
	"github.com/sofialex/pravex/internal/transport/gemini"
	"github.com/sofialex/pravex/internal/transport/googlecse"
	openaiTransport "github.com/sofialex/pravex/internal/transport/openai"
	analyzeuc "github.com/sofialex/pravex/internal/usecase/analyze"
	healthuc "github.com/sofialex/pravex/internal/usecase/health"
	scoringuc "github.com/sofialex/pravex/internal/usecase/scoring"
	searchuc "github.com/sofialex/pravex/internal/usecase/search"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting pravex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Strings("engines", cfg.Search.Engines),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()
	metrics.RegisterEmbeddingMetrics()

	ctx := context.Background()

	// Cache store: valkey/redis share one rueidis-backed store, memory runs
	// without one and the embedding cache falls back to an in-process LRU.
	var store kv.Store
	switch cfg.Cache.Driver {
	case "valkey", "redis":
		s, err := kv.NewRedisStore(kv.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer s.Close()
		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		store = s
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	case "memory":
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}

	// Build embedder chain — composition root
	embedder, embChecker, embCleanup := buildEmbedder(ctx, cfg, store, logger)
	defer embCleanup()
	if embedder != nil {
		logger.Info("Embedder created",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
		)
	}

	var gen searchuc.Generator
	if cfg.Generation.Provider == "openai" {
		provCfg := cfg.Embedding.Providers["openai"]
		gen = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      provCfg.APIKey,
			BaseURL:     provCfg.BaseURL,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Provider:    "openai",
			Logger:      logger,
		})
		logger.Info("Query expansion enabled", zap.String("model", cfg.Generation.Model))
	}

	// Search engines in fallback order, each behind a per-host throttle.
	delay := time.Duration(cfg.Search.PerHostDelayMs) * time.Millisecond
	var named []websearch.NamedEngine
	for _, name := range cfg.Search.Engines {
		switch name {
		case "google_cse":
			if cfg.Search.GoogleAPIKey == "" || cfg.Search.GoogleCX == "" {
				logger.Warn("Google CSE credentials missing, engine skipped")
				continue
			}
			gcse, err := googlecse.New(&googlecse.Config{
				APIKey:      cfg.Search.GoogleAPIKey,
				CX:          cfg.Search.GoogleCX,
				LegalSuffix: cfg.Search.LegalSuffix,
				Timeout:     time.Duration(cfg.Search.TimeoutSec) * time.Second,
				Logger:      logger,
			})
			if err != nil {
				logger.Fatal("Failed to create Google CSE client", zap.Error(err))
			}
			named = append(named, websearch.NamedEngine{Name: name, Engine: websearch.NewThrottled(gcse, delay)})
		case "duckduckgo":
			ddg := duckduckgo.New(&duckduckgo.Config{
				Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
				Logger:  logger,
			})
			named = append(named, websearch.NamedEngine{Name: name, Engine: websearch.NewThrottled(ddg, delay)})
		default:
			logger.Fatal("Unknown search engine", zap.String("engine", name))
		}
	}
	if len(named) == 0 {
		logger.Fatal("No search engines available")
	}
	engines := websearch.NewEngines(named...)

	var provider searchuc.Provider = engines
	if cfg.Search.SweepEnabled && len(cfg.Search.SweepSites) > 0 {
		provider = websearch.NewSweep(engines, cfg.Search.SweepSites)
		logger.Info("Authority sweep enabled", zap.Strings("sites", cfg.Search.SweepSites))
	}

	fetcher := fetch.New(&fetch.Config{
		Timeout:   time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		MaxRunes:  cfg.Fetch.MaxContentChars,
		UserAgent: cfg.Fetch.UserAgent,
		Logger:    logger,
	})

	// Legal domain tables and the scoring pipeline.
	taxOverrides := make(map[string]legal.Override, len(cfg.Scoring.Taxonomy))
	for name, o := range cfg.Scoring.Taxonomy {
		taxOverrides[name] = legal.Override{Weight: o.Weight, Keywords: o.Keywords}
	}
	taxonomy, err := legal.NewTaxonomy(taxOverrides)
	if err != nil {
		logger.Fatal("Invalid taxonomy configuration", zap.Error(err))
	}
	authority, err := legal.NewAuthorityTable(cfg.Scoring.Authority)
	if err != nil {
		logger.Fatal("Invalid authority configuration", zap.Error(err))
	}
	classifier := legal.NewClassifier(taxonomy).
		WithConfidenceNorm(cfg.Scoring.ConfidenceNorm).
		WithAdminPenalty(cfg.Scoring.AdminPenalty)

	weights := scoringuc.Weights{
		BM25:            cfg.Scoring.Weights.BM25,
		Semantic:        cfg.Scoring.Weights.Semantic,
		LegalContext:    cfg.Scoring.Weights.LegalContext,
		DomainAuthority: cfg.Scoring.Weights.DomainAuthority,
		TitleBoost:      cfg.Scoring.Weights.TitleBoost,
	}
	scorer, err := scoringuc.New(
		scoringuc.NewPreprocessor(taxonomy),
		scoringuc.NewBM25().WithParams(cfg.Scoring.BM25K1, cfg.Scoring.BM25B),
		scoringuc.NewSemantic(embedder),
		classifier,
		authority,
		weights,
	)
	if err != nil {
		logger.Fatal("Invalid scoring weights", zap.Error(err))
	}
	scorer = scorer.WithBM25Ceiling(cfg.Scoring.BM25NormCeiling)

	// Create use case services
	filter := searchuc.NewFilter().WithThresholds(cfg.Scoring.HighThreshold, cfg.Scoring.MediumThreshold)
	searchSvc := searchuc.New(provider, fetcher, gen, scorer, scorer, filter, searchuc.Config{
		SearchTimeout:      time.Duration(cfg.Search.TimeoutSec) * time.Second,
		FetchTimeout:       time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		GenerateTimeout:    time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		RefineAvgThreshold: cfg.Search.RefineAvgThreshold,
		CoverageRatio:      cfg.Search.CoverageRatio,
		SearchConcurrency:  cfg.Search.SearchConcurrency,
		FetchConcurrency:   cfg.Search.FetchConcurrency,
	})
	analyzeSvc := analyzeuc.New(fetcher, classifier)

	// Health service. store and embChecker stay nil interfaces when unset,
	// never typed nil pointers, so the service skips the check entirely.
	healthSvc := healthuc.New(store, embChecker)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, analyzeSvc, healthSvc, taxonomy, authority, weights, logger).
		WithSearchDefaults(cfg.Search.DefaultMaxResults, cfg.Search.DefaultMinRelevancy)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/api/search", server.Search)
	r.Post("/api/analyze", server.Analyze)
	r.Get("/api/domains", server.Domains)
	r.Get("/api/health", server.HealthCheck)
	r.Get("/metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: provider -> cache -> timeout.
// The returned checker reaches the raw provider so health probes are never
// answered from cache. cleanup releases provider resources on shutdown.
func buildEmbedder(
	ctx context.Context,
	cfg config.Config,
	store kv.Store,
	logger *zap.Logger,
) (domain.Embedder, domain.HealthChecker, func()) {
	cleanup := func() {}

	var base domain.Embedder
	var checker domain.HealthChecker
	switch cfg.Embedding.Provider {
	case "none", "":
		// Nil interfaces, never typed nil pointers: the scoring fallback and
		// health service rely on != nil checks.
		return nil, nil, cleanup
	case "openai":
		provCfg := cfg.Embedding.Providers["openai"]
		emb := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:   provCfg.APIKey,
			BaseURL:  provCfg.BaseURL,
			Model:    cfg.Embedding.Model,
			Provider: "openai",
			Logger:   logger,
		})
		base, checker = emb, emb
	case "gemini":
		provCfg := cfg.Embedding.Providers["gemini"]
		emb, err := gemini.NewEmbedder(ctx, &gemini.Config{
			APIKey: provCfg.APIKey,
			Model:  cfg.Embedding.Model,
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("Failed to create Gemini embedder", zap.Error(err))
		}
		base, checker = emb, emb
		cleanup = func() { _ = emb.Close() }
	default:
		logger.Fatal("Unknown embedding provider", zap.String("provider", cfg.Embedding.Provider))
	}

	var embedder domain.Embedder
	if store != nil {
		embedder = embcache.New(base, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger).
			WithKeyPrefix(cfg.Cache.KeyPrefix + "emb_cache:").
			WithTTL(time.Duration(cfg.Cache.TTLHours) * time.Hour)
	} else {
		lru, err := embcache.NewLRU(base, cfg.Cache.MemorySize, cfg.Embedding.Model, metrics.EmbeddingCacheTotal)
		if err != nil {
			logger.Fatal("Failed to create embedding LRU cache", zap.Error(err))
		}
		embedder = lru
	}

	if cfg.Embedding.TimeoutSec > 0 {
		embedder = &timeoutEmbedder{inner: embedder, timeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second}
	}
	return embedder, checker, cleanup
}

// timeoutEmbedder bounds every embedding call. Scoring embeds inline with
// request handling, so a stuck provider must not stall the ranking path.
type timeoutEmbedder struct {
	inner   domain.Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Embed(ctx, text)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
