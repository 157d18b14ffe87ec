package semsearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// CompletionOptions tunes one completion call. Zero values mean provider defaults.
type CompletionOptions struct {
	System      string
	MaxTokens   int
	Temperature *float64
}

// Ranker scores every document against the query in one call. It returns at most
// topN entries ordered by descending relevance in [0,1].
type Ranker interface {
	Rank(ctx context.Context, query string, documents []string, topN int) ([]RankedIndex, error)
}

// RankedIndex points back into the documents slice passed to Rank.
type RankedIndex struct {
	Index int
	Score float64
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder fails every call; vector searches then degrade to empty results.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"semsearch: embedder not configured (use WithEmbedder for advanced and pro searches)",
	)
}

type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.CompletionResult, error) {
	text, err := a.inner.Complete(ctx, prompt, CompletionOptions{
		System:      opts.System,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("%w: %w", domain.ErrCompletionProviderError, err)
	}
	return domain.CompletionResult{Text: text}, nil
}

type rankerAdapter struct {
	inner Ranker
}

func (a *rankerAdapter) Rank(ctx context.Context, query string, documents []string, topN int) ([]domain.RankedIndex, error) {
	ranked, err := a.inner.Rank(ctx, query, documents, topN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankProviderError, err)
	}
	out := make([]domain.RankedIndex, len(ranked))
	for i, r := range ranked {
		out[i] = domain.RankedIndex{Index: r.Index, Score: r.Score}
	}
	return out, nil
}
