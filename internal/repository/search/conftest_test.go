package search

import (
	"context"
	"testing"

	"github.com/sagar8080/semantic-search-system/internal/db"
)

const (
	testIndex  = "semsearch:docs:idx"
	testPrefix = "semsearch:doc:"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn   func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchHybridFn func(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
	putFn          func(ctx context.Context, key string, doc []byte) error
	getFn          func(ctx context.Context, key string) ([]byte, error)
	deleteFn       func(ctx context.Context, key string) (bool, error)
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error) {
	if m.searchHybridFn != nil {
		return m.searchHybridFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) PutDoc(ctx context.Context, key string, doc []byte) error {
	if m.putFn != nil {
		return m.putFn(ctx, key, doc)
	}
	return nil
}

func (m *mockStore) GetDoc(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) DeleteDoc(ctx context.Context, key string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return false, nil
}

// mockIndexStore implements indexStore for tests.
type mockIndexStore struct {
	exists    bool
	existsErr error
	createErr error
	created   *db.IndexDefinition

	stats     *db.IndexStats
	statsErr  error
	dropErr   error
	droppedDD *bool
}

func (m *mockIndexStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.created = def
	return m.createErr
}

func (m *mockIndexStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockIndexStore) IndexStats(_ context.Context, _ string) (*db.IndexStats, error) {
	return m.stats, m.statsErr
}

func (m *mockIndexStore) DropIndex(_ context.Context, _ string, deleteDocs bool) error {
	m.droppedDD = &deleteDocs
	return m.dropErr
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, testIndex, testPrefix, nil)
	return repo, ms
}

func testVector() []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = 0.1
	}
	return vec
}

func hit(key string, score float64, source string) db.SearchEntry {
	return db.SearchEntry{Key: key, Score: score, Fields: map[string]string{db.SourceField: source}}
}
