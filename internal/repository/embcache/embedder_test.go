package embcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

func TestEmbed_MissPopulatesBothTiers(t *testing.T) {
	next := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 10}}
	shared := newMockCache()
	e := newTestEmbedder(t, next, shared)

	res, err := e.Embed(context.Background(), "bridge repair")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 10 || len(res.Embedding) != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(shared.entries) != 1 {
		t.Fatalf("expected one shared entry, got %d", len(shared.entries))
	}
	for key, ttl := range shared.ttls {
		if !strings.HasPrefix(key, "semsearch:emb_cache:") || ttl != time.Hour {
			t.Errorf("unexpected entry %s ttl %v", key, ttl)
		}
	}

	again, err := e.Embed(context.Background(), "bridge repair")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls.Load() != 1 || again.TotalTokens != 0 || shared.loads != 1 {
		t.Fatalf("expected local hit, calls=%d tokens=%d loads=%d", next.calls.Load(), again.TotalTokens, shared.loads)
	}
}

func TestEmbed_SharedHit(t *testing.T) {
	next := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{9}}}
	shared := newMockCache()
	e := newTestEmbedder(t, next, shared)
	shared.entries[e.key("water main")] = encodeVector([]float32{0.4, 0.5})

	res, err := e.Embed(context.Background(), "water main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 0.4 || res.TotalTokens != 0 {
		t.Fatalf("expected shared vector, got %+v", res)
	}
	if next.calls.Load() != 0 {
		t.Fatalf("provider called %d times", next.calls.Load())
	}
}

func TestEmbed_ConcurrentMissesCollapse(t *testing.T) {
	next := &mockEmbedder{
		result: domain.EmbeddingResult{Embedding: []float32{0.5}},
		gate:   make(chan struct{}),
	}
	e := newTestEmbedder(t, next, newMockCache())

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Embed(context.Background(), "same query")
			errs <- err
		}()
	}

	// Let the goroutines pile up behind the first provider call.
	time.Sleep(50 * time.Millisecond)
	close(next.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := next.calls.Load(); n < 1 || n >= callers {
		t.Fatalf("expected misses to collapse, provider called %d times", n)
	}
}

func TestEmbed_KeyIncludesModel(t *testing.T) {
	a, err := New(&mockEmbedder{}, newMockCache(), Options{Model: "model-a"}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(&mockEmbedder{}, newMockCache(), Options{Model: "model-b"}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.key("q") == b.key("q") {
		t.Fatal("expected different keys for different models")
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	boom := errors.New("provider down")
	e := newTestEmbedder(t, &mockEmbedder{err: boom}, newMockCache())

	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestEmbed_SharedTierFailuresAreMisses(t *testing.T) {
	next := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.3}}}
	shared := newMockCache()
	shared.loadErr = errors.New("connection refused")
	shared.saveErr = errors.New("connection refused")
	e := newTestEmbedder(t, next, shared)

	res, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected shared tier failures to be ignored, got %v", err)
	}
	if res.Embedding[0] != 0.3 {
		t.Fatalf("unexpected vector: %v", res.Embedding)
	}
}

func TestEmbed_DiscardsUnusableEntries(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		dim     int
	}{
		{"truncated", []byte{1, 2, 3}, 0},
		{"wrong dimension", encodeVector([]float32{1, 2}), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2, 3}}}
			shared := newMockCache()
			e, err := New(next, shared, Options{Dimensions: tt.dim}, nil, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			shared.entries[e.key("x")] = tt.payload

			if _, err := e.Embed(context.Background(), "x"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next.calls.Load() != 1 {
				t.Fatalf("expected provider call, got %d", next.calls.Load())
			}
		})
	}
}

func TestEmbed_Metrics(t *testing.T) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"tier", "result"})
	next := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	e, err := New(next, newMockCache(), Options{}, lookups, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, _ = e.Embed(context.Background(), "a")
	_, _ = e.Embed(context.Background(), "a")

	if got := testutil.ToFloat64(lookups.WithLabelValues(tierShared, "miss")); got != 1 {
		t.Errorf("shared misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(lookups.WithLabelValues(tierLocal, "hit")); got != 1 {
		t.Errorf("local hits = %v, want 1", got)
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{1.5, -2.25, 0}
	out, err := decodeVector(encodeVector(in), len(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("mismatch at %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector(nil, 0); err == nil {
		t.Error("expected error for empty payload")
	}
}
