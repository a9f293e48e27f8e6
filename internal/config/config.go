package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pravex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Scoring    ScoringConfig    `yaml:"scoring"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds embedding cache settings. With no addrs configured the
// cache falls back to an in-process LRU.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLHours         int      `yaml:"ttl_hours"`
	MemorySize       int      `yaml:"memory_size"` // LRU entry count for the memory driver
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider   string                    `yaml:"provider"` // openai, gemini, none
	Model      string                    `yaml:"model"`
	TimeoutSec int                       `yaml:"timeout_sec"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds upstream AI provider credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// GenerationConfig holds query expansion and refinement LLM settings.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // openai, none
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// SearchConfig holds search provider and orchestration settings.
type SearchConfig struct {
	Engines             []string `yaml:"engines"` // fallback order: google_cse, duckduckgo
	GoogleAPIKey        string   `yaml:"google_api_key"`
	GoogleCX            string   `yaml:"google_cx"`
	LegalSuffix         bool     `yaml:"legal_suffix"` // append legal qualifier terms to provider queries
	TimeoutSec          int      `yaml:"timeout_sec"`
	PerHostDelayMs      int      `yaml:"per_host_delay_ms"`
	SweepEnabled        bool     `yaml:"sweep_enabled"` // issue per-site searches against sweep_sites
	SweepSites          []string `yaml:"sweep_sites"`
	DefaultMaxResults   int      `yaml:"default_max_results"`
	DefaultMinRelevancy float64  `yaml:"default_min_relevancy"`
	RefineAvgThreshold  float64  `yaml:"refine_avg_threshold"`
	CoverageRatio       float64  `yaml:"coverage_ratio"`
	SearchConcurrency   int      `yaml:"search_concurrency"`
	FetchConcurrency    int      `yaml:"fetch_concurrency"`
}

// FetchConfig holds page content fetcher settings.
type FetchConfig struct {
	TimeoutSec      int    `yaml:"timeout_sec"`
	MaxContentChars int    `yaml:"max_content_chars"`
	UserAgent       string `yaml:"user_agent"`
}

// ScoringConfig holds relevancy scoring settings.
type ScoringConfig struct {
	Weights         WeightsConfig               `yaml:"weights"`
	BM25K1          float64                     `yaml:"bm25_k1"`
	BM25B           float64                     `yaml:"bm25_b"`
	BM25NormCeiling float64                     `yaml:"bm25_norm_ceiling"`
	ConfidenceNorm  float64                     `yaml:"confidence_norm"`
	AdminPenalty    float64                     `yaml:"admin_penalty"`
	HighThreshold   float64                     `yaml:"high_threshold"`
	MediumThreshold float64                     `yaml:"medium_threshold"`
	Taxonomy        map[string]TaxonomyOverride `yaml:"taxonomy"`
	Authority       map[string]float64          `yaml:"authority"`
}

// WeightsConfig holds fusion weights. They must sum to 1.0.
type WeightsConfig struct {
	BM25            float64 `yaml:"bm25"`
	Semantic        float64 `yaml:"semantic"`
	LegalContext    float64 `yaml:"legal_context"`
	DomainAuthority float64 `yaml:"domain_authority"`
	TitleBoost      float64 `yaml:"title_boost"`
}

// TaxonomyOverride replaces the keyword list and weight for one legal domain.
type TaxonomyOverride struct {
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Cache.Driver == "" {
		if len(c.Cache.Addrs) > 0 {
			c.Cache.Driver = "valkey"
		} else {
			c.Cache.Driver = "memory"
		}
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "pravex:"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 168
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 4096
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "none"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = "none"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.3
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 400
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 20
	}

	if len(c.Search.Engines) == 0 {
		c.Search.Engines = []string{"google_cse", "duckduckgo"}
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 12
	}
	if c.Search.PerHostDelayMs <= 0 {
		c.Search.PerHostDelayMs = 350
	}
	if len(c.Search.SweepSites) == 0 {
		c.Search.SweepSites = []string{"ciela.net", "apis.bg", "lakorda.com"}
	}
	if c.Search.DefaultMaxResults <= 0 {
		c.Search.DefaultMaxResults = 15
	}
	if c.Search.DefaultMinRelevancy <= 0 {
		c.Search.DefaultMinRelevancy = 0.3
	}
	if c.Search.RefineAvgThreshold <= 0 {
		c.Search.RefineAvgThreshold = 0.7
	}
	if c.Search.CoverageRatio <= 0 {
		c.Search.CoverageRatio = 0.8
	}
	if c.Search.SearchConcurrency <= 0 {
		c.Search.SearchConcurrency = 3
	}
	if c.Search.FetchConcurrency <= 0 {
		c.Search.FetchConcurrency = 4
	}

	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 15
	}
	if c.Fetch.MaxContentChars <= 0 {
		c.Fetch.MaxContentChars = 4000
	}

	if c.Scoring.Weights == (WeightsConfig{}) {
		c.Scoring.Weights = WeightsConfig{
			BM25:            0.30,
			Semantic:        0.25,
			LegalContext:    0.25,
			DomainAuthority: 0.10,
			TitleBoost:      0.10,
		}
	}
	if c.Scoring.BM25K1 <= 0 {
		c.Scoring.BM25K1 = 1.8
	}
	if c.Scoring.BM25B <= 0 {
		c.Scoring.BM25B = 0.7
	}
	if c.Scoring.BM25NormCeiling <= 0 {
		c.Scoring.BM25NormCeiling = 10.0
	}
	if c.Scoring.ConfidenceNorm <= 0 {
		c.Scoring.ConfidenceNorm = 10.0
	}
	if c.Scoring.AdminPenalty <= 0 {
		c.Scoring.AdminPenalty = 0.2
	}
	if c.Scoring.HighThreshold <= 0 {
		c.Scoring.HighThreshold = 0.6
	}
	if c.Scoring.MediumThreshold <= 0 {
		c.Scoring.MediumThreshold = 0.3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Cache.Driver {
	case "valkey", "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	case "memory":
		// ok
	default:
		return fmt.Errorf("cache.driver must be \"valkey\", \"redis\" or \"memory\", got %q", c.Cache.Driver)
	}

	switch c.Embedding.Provider {
	case "none", "openai", "gemini":
		// ok
	default:
		return fmt.Errorf("embedding.provider must be \"openai\", \"gemini\" or \"none\", got %q", c.Embedding.Provider)
	}

	switch c.Generation.Provider {
	case "none", "openai":
		// ok
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"none\", got %q", c.Generation.Provider)
	}

	for _, engine := range c.Search.Engines {
		switch engine {
		case "google_cse", "duckduckgo":
			// ok
		default:
			return fmt.Errorf("search.engines entry must be \"google_cse\" or \"duckduckgo\", got %q", engine)
		}
	}

	w := c.Scoring.Weights
	sum := w.BM25 + w.Semantic + w.LegalContext + w.DomainAuthority + w.TitleBoost
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring.weights must sum to 1.0, got %v", sum)
	}
	for name, v := range map[string]float64{
		"bm25":             w.BM25,
		"semantic":         w.Semantic,
		"legal_context":    w.LegalContext,
		"domain_authority": w.DomainAuthority,
		"title_boost":      w.TitleBoost,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring.weights.%s must be between 0 and 1, got %v", name, v)
		}
	}

	if c.Scoring.MediumThreshold >= c.Scoring.HighThreshold {
		return fmt.Errorf(
			"scoring.medium_threshold must be below scoring.high_threshold, got %v >= %v",
			c.Scoring.MediumThreshold, c.Scoring.HighThreshold,
		)
	}
	if c.Scoring.AdminPenalty > 1 {
		return fmt.Errorf("scoring.admin_penalty must be at most 1, got %v", c.Scoring.AdminPenalty)
	}

	if c.Search.DefaultMinRelevancy < 0.1 || c.Search.DefaultMinRelevancy > 0.9 {
		return fmt.Errorf(
			"search.default_min_relevancy must be between 0.1 and 0.9, got %v",
			c.Search.DefaultMinRelevancy,
		)
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
