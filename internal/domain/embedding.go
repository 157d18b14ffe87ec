package domain

import (
	"context"
	"fmt"
)

// Embedder turns text into a dense vector. Query embeddings and document embeddings
// must come from the same model and dimension for k-NN scores to be meaningful.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder embeds several texts in one provider round trip, returning results in input order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([]EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Check rejects an empty vector, and a vector of the wrong size when dim > 0.
func (r EmbeddingResult) Check(dim int) error {
	if len(r.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if dim > 0 && len(r.Embedding) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorDimMismatch, len(r.Embedding), dim)
	}
	return nil
}

// InstructionEmbedder prepends a task instruction to every text, e.g. "query: " for
// asymmetric retrieval models. It wraps query-side embedders only; documents are
// embedded at ingestion without it.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates the decorator.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
