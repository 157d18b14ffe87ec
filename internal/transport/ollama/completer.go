// Package ollama drives a local Ollama server for text completion through langchaingo.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

const provider = "ollama"

// Config holds the Ollama connection settings.
type Config struct {
	ServerURL string
	Model     string
	Logger    *zap.Logger
}

// Completer implements domain.Completer over an llms.Model.
type Completer struct {
	llm    llms.Model
	model  string
	logger *zap.Logger
}

// NewCompleter connects to an Ollama server.
func NewCompleter(cfg *Config) (*Completer, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return newCompleter(llm, cfg.Model, cfg.Logger), nil
}

func newCompleter(llm llms.Model, model string, logger *zap.Logger) *Completer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completer{llm: llm, model: model, logger: logger}
}

// Complete implements domain.Completer.
func (c *Completer) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.CompletionResult, error) {
	content := make([]llms.MessageContent, 0, 2)
	if opts.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, opts.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	var callOpts []llms.CallOption
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*opts.Temperature))
	}

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, content, callOpts...)
	duration := time.Since(start)

	if err != nil {
		c.record("error", "api_error", duration)
		return domain.CompletionResult{}, fmt.Errorf("ollama generate: %w: %w", err, domain.ErrCompletionProviderError)
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		c.record("error", "empty_response", duration)
		return domain.CompletionResult{}, fmt.Errorf("%w: %w", domain.ErrEmptyCompletion, domain.ErrCompletionProviderError)
	}
	c.record("success", "", duration)

	choice := resp.Choices[0]
	return domain.CompletionResult{
		Text:             choice.Content,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
	}, nil
}

func (c *Completer) record(status, errorType string, d time.Duration) {
	metrics.ProviderRequestsTotal.WithLabelValues(metrics.KindCompletion, provider, c.model, status).Inc()
	if errorType != "" {
		metrics.ProviderErrorsTotal.WithLabelValues(metrics.KindCompletion, provider, c.model, errorType).Inc()
		return
	}
	metrics.ProviderRequestDuration.WithLabelValues(metrics.KindCompletion, provider, c.model).Observe(d.Seconds())
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
