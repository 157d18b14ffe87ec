// Package openai adapts OpenAI-compatible HTTP APIs (OpenAI, Nebius, vLLM, LM Studio)
// to the domain embedding and completion ports through go-openai.
package openai

import (
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// defaultHTTPTimeout bounds a single provider round trip when the caller's context has no deadline.
const defaultHTTPTimeout = 60 * time.Second

// Config holds the provider settings shared by the embedder and the completer.
type Config struct {
	APIKey  string
	BaseURL string // empty means api.openai.com
	Model   string
	// Dimensions asks the model for shortened vectors (embeddings only). 0 keeps the native size.
	Dimensions int
	User       string
	// Provider labels metrics, e.g. "openai" or "nebius".
	Provider string
	Logger   *zap.Logger
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	} else {
		clientCfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}
