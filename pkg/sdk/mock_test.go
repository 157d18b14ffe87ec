package semsearch

import (
	"context"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	domdoc "github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	answeruc "github.com/sagar8080/semantic-search-system/internal/usecase/answer"
	healthuc "github.com/sagar8080/semantic-search-system/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	calls   []string
	lastReq *request.Request
	results []result.Candidate
}

func (m *mockSearchUC) record(op string, req *request.Request) []result.Candidate {
	m.calls = append(m.calls, op)
	m.lastReq = req
	return m.results
}

func (m *mockSearchUC) Search(_ context.Context, req *request.Request) []result.Candidate {
	return m.record("search", req)
}

func (m *mockSearchUC) KB(_ context.Context, req *request.Request) []result.Candidate {
	return m.record("kb", req)
}

func (m *mockSearchUC) Documents(_ context.Context, req *request.Request) []result.Candidate {
	return m.record("documents", req)
}

// --- answerUseCase mock ---

type mockAnswerUC struct {
	answerFn func(ctx context.Context, question string) (answeruc.Answer, error)
}

func (m *mockAnswerUC) Answer(ctx context.Context, question string) (answeruc.Answer, error) {
	return m.answerFn(ctx, question)
}

// --- documentRepo mock ---

type mockDocRepo struct {
	putFn    func(ctx context.Context, d *domdoc.Document) error
	getFn    func(ctx context.Context, id string) (domdoc.Document, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockDocRepo) Put(ctx context.Context, d *domdoc.Document) error {
	return m.putFn(ctx, d)
}

func (m *mockDocRepo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

func (m *mockDocRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- indexStore mock ---

type mockIndexStore struct {
	stats     *db.IndexStats
	statsErr  error
	dropErr   error
	dropped   bool
	droppedDD bool
}

func (m *mockIndexStore) CreateIndex(context.Context, *db.IndexDefinition) error { return nil }

func (m *mockIndexStore) IndexExists(context.Context, string) (bool, error) { return true, nil }

func (m *mockIndexStore) IndexStats(context.Context, string) (*db.IndexStats, error) {
	return m.stats, m.statsErr
}

func (m *mockIndexStore) DropIndex(_ context.Context, _ string, deleteDocs bool) error {
	if m.dropErr != nil {
		return m.dropErr
	}
	m.dropped, m.droppedDD = true, deleteDocs
	return nil
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}

// --- domain.Embedder mock ---

type mockDomainEmbedder struct {
	texts []string
	vec   []float32
	err   error
}

func (m *mockDomainEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- public provider mocks ---

type stubCompleter struct {
	text string
	err  error
	got  CompletionOptions
}

func (s *stubCompleter) Complete(_ context.Context, _ string, opts CompletionOptions) (string, error) {
	s.got = opts
	return s.text, s.err
}

type stubRanker struct {
	ranked []RankedIndex
	err    error
}

func (s *stubRanker) Rank(_ context.Context, _ string, _ []string, _ int) ([]RankedIndex, error) {
	return s.ranked, s.err
}

// newTestClient assembles a client over mocks with a 4-dimensional index.
func newTestClient(search *mockSearchUC, docs *mockDocRepo) *Client {
	cfg := &clientConfig{vectorDimensions: 4}
	applyDefaults(cfg)
	return &Client{
		cfg:       cfg,
		docs:      docs,
		searchSvc: search,
		healthSvc: &mockHealthUC{},
	}
}
