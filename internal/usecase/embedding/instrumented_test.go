package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	calls     int
	lastText  string
	healthErr error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error {
	return m.healthErr
}

type plainMockEmbedder struct{}

func (plainMockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 4,
		TotalTokens:  4,
	}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(result.Embedding))
	}
	if result.TotalTokens != 4 {
		t.Fatalf("expected usage to pass through, got %d", result.TotalTokens)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.New(core))

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if logs.FilterMessage("Embedding request failed").Len() != 1 {
		t.Fatal("expected failure log entry")
	}
}

func TestInstrumentedEmbedder_EmptyText(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil)

	_, err := p.Embed(context.Background(), "  \n")
	if !errors.Is(err, ErrEmptyText) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if inner.calls != 0 {
		t.Fatal("inner embedder must not be called for blank text")
	}
}

func TestInstrumentedEmbedder_WithInstruction(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewInstrumentedEmbedder(domain.NewInstructionEmbedder(inner, "query: "), "test", "m", nil)

	if _, err := p.Embed(context.Background(), "bridge"); err != nil {
		t.Fatal(err)
	}
	if inner.lastText != "query: bridge" {
		t.Fatalf("unexpected text %q", inner.lastText)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	inner := &mockEmbedder{healthErr: errors.New("down")}
	if err := NewInstrumentedEmbedder(inner, "t", "m", nil).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health error to propagate")
	}
	if err := NewInstrumentedEmbedder(plainMockEmbedder{}, "t", "m", nil).HealthCheck(context.Background()); err != nil {
		t.Fatalf("embedders without health checks are healthy, got %v", err)
	}
}

type batchMockEmbedder struct {
	mockEmbedder
	batchCalls int
}

func (m *batchMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.EmbeddingResult, len(texts))
	for i := range texts {
		out[i] = domain.EmbeddingResult{Embedding: []float32{float32(i)}, TotalTokens: 2}
	}
	return out, nil
}

func TestInstrumentedEmbedder_EmbedBatchForwards(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	inner := &batchMockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "m", zap.New(core))

	results, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 || results[2].Embedding[0] != 2 {
		t.Fatalf("unexpected results %+v", results)
	}
	if inner.batchCalls != 1 || inner.calls != 0 {
		t.Fatalf("batch calls = %d, single calls = %d", inner.batchCalls, inner.calls)
	}

	entries := logs.FilterMessage("Embedding request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion log, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["total_tokens"]; got != int64(6) {
		t.Fatalf("total_tokens = %v, want 6", got)
	}
}

func TestInstrumentedEmbedder_EmbedBatchFallsBack(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewInstrumentedEmbedder(inner, "test", "m", nil)

	results, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || inner.calls != 2 {
		t.Fatalf("results = %d, calls = %d", len(results), inner.calls)
	}
}

func TestInstrumentedEmbedder_EmbedBatchErrors(t *testing.T) {
	inner := &batchMockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "test", "m", nil)

	if _, err := p.EmbedBatch(context.Background(), []string{"a", " "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if inner.batchCalls != 0 {
		t.Fatal("provider must not be called when a text is blank")
	}

	inner.err = domain.ErrRateLimited
	if _, err := p.EmbedBatch(context.Background(), []string{"a"}); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	results, err := p.EmbedBatch(context.Background(), nil)
	if err != nil || results != nil {
		t.Fatalf("empty batch = %v, %v", results, err)
	}
}
