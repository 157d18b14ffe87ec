package embcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  atomic.Int32
	// gate, when set, blocks every call until closed.
	gate chan struct{}
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	return m.result, m.err
}

// mockCache is an in-memory shared tier with optional failure hooks.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	loadErr error
	saveErr error
	loads   int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockCache) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockCache) Save(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestEmbedder(t *testing.T, next *mockEmbedder, shared *mockCache) *Embedder {
	t.Helper()
	e, err := New(next, shared, Options{
		KeyPrefix: "semsearch:emb_cache:",
		Model:     "text-embedding-3-small",
		TTL:       time.Hour,
		LocalSize: 8,
	}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}
