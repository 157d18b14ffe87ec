package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the semsearch service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Search     SearchConfig     `yaml:"search"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	Index            string   `yaml:"index"`
	KeyPrefix        string   `yaml:"key_prefix"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // label for metrics and logs
	APIKey           string      `yaml:"api_key"`
	BaseURL          string      `yaml:"base_url"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	QueryInstruction string      `yaml:"query_instruction"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Enabled   bool `yaml:"enabled"`
	TTLHours  int  `yaml:"ttl_hours"`
	LocalSize int  `yaml:"local_size"`
}

// CompletionConfig holds text-completion settings used by query expansion, LLM reranking and answers.
type CompletionConfig struct {
	Driver      string          `yaml:"driver"` // openai, ollama
	Provider    string          `yaml:"provider"`
	APIKey      string          `yaml:"api_key"`
	BaseURL     string          `yaml:"base_url"`
	Model       string          `yaml:"model"`
	Temperature float64         `yaml:"temperature"`
	MaxTokens   int             `yaml:"max_tokens"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds outbound token bucket settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
	BackoffSec        int     `yaml:"backoff_sec"`
}

// RerankConfig holds reranker settings.
type RerankConfig struct {
	Driver   string `yaml:"driver"` // http, llm, none
	Provider string `yaml:"provider"`
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// SearchConfig holds retrieval tuning.
type SearchConfig struct {
	Fusion               string  `yaml:"fusion"` // arithmetic_mean, geometric_mean, harmonic_mean, rrf
	RerankWindowFactor   int     `yaml:"rerank_window_factor"`
	SemanticFloor        int     `yaml:"semantic_floor"`
	KBMaxK               int     `yaml:"kb_max_k"`
	KBRelevanceThreshold float64 `yaml:"kb_relevance_threshold"`
	KBScoreThreshold     float64 `yaml:"kb_score_threshold"`
	MinimumShouldMatch   int     `yaml:"minimum_should_match"`
}

// TimeoutsConfig bounds every external call, in milliseconds.
type TimeoutsConfig struct {
	EmbeddingMs  int `yaml:"embedding_ms"`
	CompletionMs int `yaml:"completion_ms"`
	StoreMs      int `yaml:"store_ms"`
	RerankMs     int `yaml:"rerank_ms"`
}

// Embedding returns the embedding timeout.
func (t TimeoutsConfig) Embedding() time.Duration { return ms(t.EmbeddingMs) }

// Completion returns the completion timeout.
func (t TimeoutsConfig) Completion() time.Duration { return ms(t.CompletionMs) }

// Store returns the store query timeout.
func (t TimeoutsConfig) Store() time.Duration { return ms(t.StoreMs) }

// Rerank returns the rerank timeout.
func (t TimeoutsConfig) Rerank() time.Duration { return ms(t.RerankMs) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, is loaded into the environment first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults and validation.
func Parse(data []byte) (Config, error) {
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

	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Index == "" {
		c.Database.Index = "semsearch:docs:idx"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "semsearch:doc:"
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 256
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 7
	}

	if c.Completion.Driver == "" {
		c.Completion.Driver = "openai"
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = c.Completion.Driver
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "gpt-4o-mini"
	}
	if c.Completion.RateLimit.Burst <= 0 {
		c.Completion.RateLimit.Burst = 5
	}
	if c.Completion.RateLimit.BackoffSec <= 0 {
		c.Completion.RateLimit.BackoffSec = 30
	}

	if c.Rerank.Driver == "" {
		c.Rerank.Driver = "none"
	}
	if c.Rerank.Provider == "" {
		c.Rerank.Provider = c.Rerank.Driver
	}

	if c.Search.Fusion == "" {
		c.Search.Fusion = "arithmetic_mean"
	}
	if c.Search.RerankWindowFactor <= 0 {
		c.Search.RerankWindowFactor = 5
	}
	if c.Search.SemanticFloor <= 0 {
		c.Search.SemanticFloor = 50
	}
	if c.Search.KBMaxK <= 0 {
		c.Search.KBMaxK = 10
	}
	if c.Search.KBRelevanceThreshold <= 0 {
		c.Search.KBRelevanceThreshold = 0.60
	}
	if c.Search.KBScoreThreshold <= 0 {
		c.Search.KBScoreThreshold = 0.70
	}
	if c.Search.MinimumShouldMatch <= 0 {
		c.Search.MinimumShouldMatch = 1
	}

	if c.Timeouts.EmbeddingMs <= 0 {
		c.Timeouts.EmbeddingMs = 10_000
	}
	if c.Timeouts.CompletionMs <= 0 {
		c.Timeouts.CompletionMs = 30_000
	}
	if c.Timeouts.StoreMs <= 0 {
		c.Timeouts.StoreMs = 5_000
	}
	if c.Timeouts.RerankMs <= 0 {
		c.Timeouts.RerankMs = 15_000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Completion.Driver {
	case "openai", "ollama":
	default:
		return fmt.Errorf("completion.driver must be \"openai\" or \"ollama\", got %q", c.Completion.Driver)
	}
	switch c.Rerank.Driver {
	case "none", "llm":
	case "http":
		if c.Rerank.URL == "" {
			return fmt.Errorf("rerank.url is required for the http driver")
		}
	default:
		return fmt.Errorf("rerank.driver must be \"http\", \"llm\" or \"none\", got %q", c.Rerank.Driver)
	}
	switch c.Search.Fusion {
	case "arithmetic_mean", "geometric_mean", "harmonic_mean", "rrf":
	default:
		return fmt.Errorf("search.fusion must be one of arithmetic_mean, geometric_mean, harmonic_mean, rrf, got %q",
			c.Search.Fusion)
	}
	if c.Search.KBRelevanceThreshold > 1 || c.Search.KBScoreThreshold > 1 {
		return fmt.Errorf("search.kb thresholds must be within (0, 1]")
	}
	if c.Search.MinimumShouldMatch > 1 {
		return fmt.Errorf("search.minimum_should_match must be 1, got %d: the redis backend evaluates should clauses as a union",
			c.Search.MinimumShouldMatch)
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
