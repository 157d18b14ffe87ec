// Package embedding holds embedder decorators shared by the query and ingest paths.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// ErrEmptyText is returned for blank input; providers reject it anyway.
var ErrEmptyText = errors.New("empty text")

var (
	_ domain.Embedder      = (*InstrumentedEmbedder)(nil)
	_ domain.BatchEmbedder = (*InstrumentedEmbedder)(nil)
	_ domain.HealthChecker = (*InstrumentedEmbedder)(nil)
)

// InstrumentedEmbedder rejects blank input and logs every call with its latency and usage.
// Request counters live in the provider transports.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	fields []zap.Field
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. provider and model are attached to each log line.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:  inner,
		fields: []zap.Field{zap.String("provider", provider), zap.String("model", model)},
		logger: logger,
	}
}

// Embed delegates one text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, ErrEmptyText)
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.failed(1, start, err)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	p.completed(1, start, result)
	return result, nil
}

// EmbedBatch uses the inner batch call when there is one and falls back to
// sequential Embed calls otherwise. No text may be blank.
func (p *InstrumentedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("embed batch: text %d: %w: %w", i, domain.ErrEmbeddingProviderError, ErrEmptyText)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	results, err := p.batch(ctx, texts)
	if err != nil {
		p.failed(len(texts), start, err)
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	var usage domain.EmbeddingResult
	for _, r := range results {
		usage.PromptTokens += r.PromptTokens
		usage.TotalTokens += r.TotalTokens
	}
	if len(results) > 0 {
		usage.Embedding = results[0].Embedding
	}
	p.completed(len(texts), start, usage)
	return results, nil
}

func (p *InstrumentedEmbedder) batch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	if b, ok := p.inner.(domain.BatchEmbedder); ok {
		return b.EmbedBatch(ctx, texts)
	}
	results := make([]domain.EmbeddingResult, len(texts))
	for i, text := range texts {
		r, err := p.inner.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		results[i] = r
	}
	return results, nil
}

func (p *InstrumentedEmbedder) failed(n int, start time.Time, err error) {
	p.logger.Error("Embedding request failed", append(p.fields,
		zap.Int("texts", n),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)...)
}

func (p *InstrumentedEmbedder) completed(n int, start time.Time, r domain.EmbeddingResult) {
	if ce := p.logger.Check(zap.DebugLevel, "Embedding request completed"); ce != nil {
		ce.Write(append(p.fields,
			zap.Int("texts", n),
			zap.Duration("duration", time.Since(start)),
			zap.Int("dimensions", len(r.Embedding)),
			zap.Int("prompt_tokens", r.PromptTokens),
			zap.Int("total_tokens", r.TotalTokens),
		)...)
	}
}

// HealthCheck forwards to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
