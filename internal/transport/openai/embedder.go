package openai

import (
	"context"
	"fmt"
	"slices"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.BatchEmbedder = (*Embedder)(nil)
)

// Embedder calls the /embeddings endpoint.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates an embedder. When cfg.Dimensions is set every returned vector is checked against it.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     cfg.logger(),
	}
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request and returns the vectors in input order.
// Token usage is reported for the whole request on the first result.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
		Dimensions:     e.dimensions,
	}

	model := string(e.model)
	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		recordFailure(metrics.KindEmbedding, e.provider, model, "api_error")
		return nil, parseAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}

	out, reason, err := e.collect(resp.Data, len(texts))
	if err != nil {
		recordFailure(metrics.KindEmbedding, e.provider, model, reason)
		return nil, err
	}
	out[0].PromptTokens = resp.Usage.PromptTokens
	out[0].TotalTokens = resp.Usage.TotalTokens

	recordSuccess(metrics.KindEmbedding, e.provider, model, elapsed, resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	e.logger.Debug("Embedded batch",
		zap.Int("texts", len(texts)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", elapsed),
	)
	return out, nil
}

// collect orders the response items by index and checks each vector. The second return
// value is the metrics label for a failure.
func (e *Embedder) collect(data []openai.Embedding, want int) ([]domain.EmbeddingResult, string, error) {
	if len(data) != want {
		return nil, "empty_response", fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(data), want, domain.ErrEmbeddingProviderError)
	}

	data = slices.Clone(data)
	slices.SortFunc(data, func(a, b openai.Embedding) int { return a.Index - b.Index })

	out := make([]domain.EmbeddingResult, want)
	for i, item := range data {
		if item.Index != i {
			return nil, "bad_index", fmt.Errorf("embedding index %d out of sequence: %w",
				item.Index, domain.ErrEmbeddingProviderError)
		}
		res := domain.EmbeddingResult{Embedding: item.Embedding}
		if err := res.Check(e.dimensions); err != nil {
			label := "dimension_mismatch"
			if len(item.Embedding) == 0 {
				label = "empty_response"
			}
			return nil, label, fmt.Errorf("input %d: %w: %w", i, err, domain.ErrEmbeddingProviderError)
		}
		out[i] = res
	}
	return out, "", nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
