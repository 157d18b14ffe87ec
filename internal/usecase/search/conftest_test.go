package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

func init() {
	metrics.RegisterSearchMetrics()
}

// --- Mocks ---

type mockRepo struct {
	results []result.Candidate
	err     error
	calls   int
	last    *query.Request
}

func (m *mockRepo) Execute(_ context.Context, req *query.Request) ([]result.Candidate, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockExpander struct {
	terms []string
	calls int
}

func (m *mockExpander) Expand(_ context.Context, q string) []string {
	m.calls++
	if m.terms == nil {
		return []string{q}
	}
	return m.terms
}

type mockReranker struct {
	fn    func(cands []result.Candidate, topN int) ([]result.Candidate, bool)
	calls int
	in    int
	topN  int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, cands []result.Candidate, topN int) ([]result.Candidate, bool) {
	m.calls++
	m.in = len(cands)
	m.topN = topN
	return m.fn(cands, topN)
}

// --- Helpers ---

type fixture struct {
	svc      *Service
	repo     *mockRepo
	embed    *mockEmbedder
	expander *mockExpander
	reranker *mockReranker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &mockRepo{},
		embed:    &mockEmbedder{vec: vector256()},
		expander: &mockExpander{},
		reranker: &mockReranker{fn: func(c []result.Candidate, n int) ([]result.Candidate, bool) {
			return c[:min(n, len(c))], true
		}},
	}
	f.svc = New(f.repo, f.embed, f.expander, f.reranker, Config{}, nil)
	return f
}

func vector256() []float32 {
	v := make([]float32, 256)
	for i := range v {
		v[i] = 0.0625
	}
	return v
}

func mustRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	r, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

// scored returns n candidates with descending raw scores starting at top.
func scored(n int, top, step float64) []result.Candidate {
	out := make([]result.Candidate, n)
	for i := range out {
		out[i] = result.New(document.Document{
			ID:      fmt.Sprintf("doc-%02d", i),
			Title:   fmt.Sprintf("Bridge repair notice %d", i),
			Summary: "The department announced bridge repairs.",
		}, top-float64(i)*step)
	}
	return out
}

func withRelevance(cands []result.Candidate, scores ...float64) []result.Candidate {
	out := make([]result.Candidate, len(scores))
	for i, s := range scores {
		out[i] = cands[i].WithRelevanceScore(s)
	}
	return out
}

func ids(cs []result.Candidate) []string {
	out := make([]string, len(cs))
	for i := range cs {
		out[i] = cs[i].ID()
	}
	return out
}

func source(t *testing.T, r *query.Request) string {
	t.Helper()
	if r == nil {
		t.Fatal("no request captured")
	}
	return r.String()
}
