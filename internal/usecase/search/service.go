package search

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/logger"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

// Defaults for Config.
const (
	DefaultRerankWindowFactor   = 5
	DefaultSemanticFloor        = 50
	DefaultKBMaxK               = 10
	DefaultKBRelevanceThreshold = 0.60
	DefaultKBScoreThreshold     = 0.70
	DefaultMinimumShouldMatch   = 1

	// MaxMinimumShouldMatch is the largest value the store honours: should clauses run as a union.
	MaxMinimumShouldMatch = 1
)

// Variant labels for metrics.
const (
	variantSearch    = "search"
	variantKB        = "kb"
	variantDocuments = "documents"
)

// Config holds the retrieval tuning knobs.
type Config struct {
	RerankWindowFactor   int     // retrieval window = k * factor when reranking
	SemanticFloor        int     // minimum k of the vector sub-query in Pro and search_documents
	KBMaxK               int     // search_kb clamps window and semantic k into [1, KBMaxK]
	KBRelevanceThreshold float64 // inclusive reranker relevance cut-off for search_kb
	KBScoreThreshold     float64 // inclusive fused-score cut-off for search_kb without reranking
	MinimumShouldMatch   int     // Pro lexical sub-query
	Dimensions           int     // expected query vector size; 0 skips the check
	EmbeddingTimeout     time.Duration
	StoreTimeout         time.Duration
}

func (c Config) withDefaults() Config {
	if c.RerankWindowFactor <= 0 {
		c.RerankWindowFactor = DefaultRerankWindowFactor
	}
	if c.SemanticFloor <= 0 {
		c.SemanticFloor = DefaultSemanticFloor
	}
	if c.KBMaxK <= 0 {
		c.KBMaxK = DefaultKBMaxK
	}
	if c.KBRelevanceThreshold <= 0 {
		c.KBRelevanceThreshold = DefaultKBRelevanceThreshold
	}
	if c.KBScoreThreshold <= 0 {
		c.KBScoreThreshold = DefaultKBScoreThreshold
	}
	if c.MinimumShouldMatch <= 0 {
		c.MinimumShouldMatch = DefaultMinimumShouldMatch
	}
	c.MinimumShouldMatch = min(c.MinimumShouldMatch, MaxMinimumShouldMatch)
	return c
}

// Service is the retrieval orchestrator. It never returns an error: every failure
// degrades to an empty (or, for reranking, unranked) result list and is logged.
type Service struct {
	repo     Repository
	embed    Embedder
	expander Expander
	reranker Reranker
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. expander and reranker may be nil; the service then
// searches with the original query only and normalizes instead of reranking.
func New(repo Repository, embed Embedder, expander Expander, reranker Reranker, cfg Config, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	if cfg.MinimumShouldMatch > MaxMinimumShouldMatch {
		l.Warn("minimum_should_match not supported, capping",
			zap.Int("requested", cfg.MinimumShouldMatch),
			zap.Int("applied", MaxMinimumShouldMatch))
	}
	return &Service{
		repo:     repo,
		embed:    embed,
		expander: expander,
		reranker: reranker,
		cfg:      cfg.withDefaults(),
		logger:   l,
	}
}

// Search runs the recipe of the request's mode and returns at most k candidates.
func (s *Service) Search(ctx context.Context, req *request.Request) []result.Candidate {
	ctx = s.scope(ctx, req, variantSearch)
	if !s.acceptQuery(ctx, req, variantSearch) {
		return nil
	}

	var out []result.Candidate
	switch req.Mode() {
	case mode.Simple:
		out = s.searchSimple(ctx, req)
	case mode.Advanced:
		out = s.searchAdvanced(ctx, req)
	default:
		out = s.searchPro(ctx, req)
	}
	return s.finish(variantSearch, req, out)
}

// KB is the knowledge-base-constrained Pro search. It bounds the retrieval window and keeps
// only confident hits; an empty result tells the caller to fall back to external sources.
func (s *Service) KB(ctx context.Context, req *request.Request) []result.Candidate {
	ctx = s.scope(ctx, req, variantKB)
	if !s.acceptQuery(ctx, req, variantKB) {
		return nil
	}
	return s.finish(variantKB, req, s.searchKB(ctx, req))
}

// Documents is a plain hybrid search without expansion or reranking.
func (s *Service) Documents(ctx context.Context, req *request.Request) []result.Candidate {
	ctx = s.scope(ctx, req, variantDocuments)
	if !s.acceptQuery(ctx, req, variantDocuments) {
		return nil
	}

	vec, ok := s.embedQuery(ctx, req.Query())
	if !ok {
		return s.finish(variantDocuments, req, nil)
	}

	k := req.K()
	q := hybridQuery(req, documentsLexical(req), vec, max(5*k, s.cfg.SemanticFloor), k)
	cands, ok := s.execute(ctx, q)
	if !ok {
		return s.finish(variantDocuments, req, nil)
	}
	return s.finish(variantDocuments, req, firstK(Normalize(cands), k))
}

func (s *Service) searchSimple(ctx context.Context, req *request.Request) []result.Candidate {
	cands, ok := s.execute(ctx, simpleQuery(req))
	if !ok {
		return nil
	}
	return firstK(Normalize(cands), req.K())
}

func (s *Service) searchAdvanced(ctx context.Context, req *request.Request) []result.Candidate {
	vec, ok := s.embedQuery(ctx, req.Query())
	if !ok {
		return nil
	}
	cands, ok := s.execute(ctx, advancedQuery(req, vec))
	if !ok {
		return nil
	}
	return firstK(Normalize(cands), req.K())
}

func (s *Service) searchPro(ctx context.Context, req *request.Request) []result.Candidate {
	k := req.K()
	rerank := req.Rerank() && s.reranker != nil

	window := k
	if rerank {
		window = k * s.cfg.RerankWindowFactor
	}

	cands, ok := s.retrieve(ctx, req, window, max(window, s.cfg.SemanticFloor))
	if !ok {
		return nil
	}

	if rerank {
		out, _ := s.rerank(ctx, req.Query(), cands, k)
		return out
	}
	return firstK(Normalize(cands), k)
}

func (s *Service) searchKB(ctx context.Context, req *request.Request) []result.Candidate {
	k := req.K()
	rerank := req.Rerank() && s.reranker != nil

	window := k
	if rerank {
		window = k * s.cfg.RerankWindowFactor
	}
	window = clamp(window, 1, s.cfg.KBMaxK)

	cands, ok := s.retrieve(ctx, req, window, window)
	if !ok {
		return nil
	}

	if rerank {
		ranked, ok := s.rerank(ctx, req.Query(), cands, k)
		if ok {
			return keepRelevant(ranked, s.cfg.KBRelevanceThreshold)
		}
		// Unranked fallback carries no relevance; gate it on the fused score instead.
	}

	return firstK(sortByNormalized(keepConfident(Normalize(cands), s.cfg.KBScoreThreshold)), k)
}

// retrieve runs the Pro pipeline up to the store call: expansion, embedding, hybrid query.
func (s *Service) retrieve(ctx context.Context, req *request.Request, size, semanticK int) ([]result.Candidate, bool) {
	terms := []string{req.Query()}
	if req.Expand() && s.expander != nil {
		start := time.Now()
		terms = s.expander.Expand(ctx, req.Query())
		observeStage(metrics.StageExpansion, start)
		if len(terms) == 0 {
			terms = []string{req.Query()}
		}
	}

	vec, ok := s.embedQuery(ctx, req.Query())
	if !ok {
		return nil, false
	}

	lexical := proLexical(terms, req.Fuzziness(), s.cfg.MinimumShouldMatch, filters(req))
	return s.execute(ctx, hybridQuery(req, lexical, vec, semanticK, size))
}

// scope tags every log line of one search with its variant and mode.
func (s *Service) scope(ctx context.Context, req *request.Request, variant string) context.Context {
	return logger.With(ctx, s.logger, zap.String("variant", variant), zap.String("mode", string(req.Mode())))
}

func (s *Service) acceptQuery(ctx context.Context, req *request.Request, variant string) bool {
	if req.Query() != "" {
		return true
	}
	s.log(ctx).Warn("Empty search query, returning no results")
	metrics.SearchRequestsTotal.WithLabelValues(variant, string(req.Mode()), "empty").Inc()
	return false
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, bool) {
	if s.embed == nil {
		s.log(ctx).Error("No embedding provider configured")
		degraded(metrics.StageEmbedding)
		return nil, false
	}
	if s.cfg.EmbeddingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbeddingTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.embed.Embed(ctx, text)
	observeStage(metrics.StageEmbedding, start)

	if err == nil {
		err = res.Check(s.cfg.Dimensions)
	}
	if err != nil {
		s.log(ctx).Error("Query embedding failed, returning no results", zap.Error(err))
		degraded(metrics.StageEmbedding)
		return nil, false
	}
	return res.Embedding, true
}

func (s *Service) execute(ctx context.Context, q *query.Request) ([]result.Candidate, bool) {
	if s.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StoreTimeout)
		defer cancel()
	}

	l := s.log(ctx)
	if ce := l.Check(zap.DebugLevel, "Executing search"); ce != nil {
		ce.Write(zap.Stringer("query", q))
	}

	start := time.Now()
	cands, err := s.repo.Execute(ctx, q)
	observeStage(metrics.StageStore, start)

	if err != nil {
		l.Error("Search query failed, returning no results", zap.Stringer("query", q), zap.Error(err))
		degraded(metrics.StageStore)
		return nil, false
	}
	return cands, true
}

func (s *Service) rerank(ctx context.Context, q string, cands []result.Candidate, k int) ([]result.Candidate, bool) {
	start := time.Now()
	out, ok := s.reranker.Rerank(ctx, q, cands, k)
	observeStage(metrics.StageRerank, start)
	if !ok && len(cands) > 0 {
		degraded(metrics.StageRerank)
	}
	return out, ok
}

func (s *Service) finish(variant string, req *request.Request, out []result.Candidate) []result.Candidate {
	outcome := "ok"
	if len(out) == 0 {
		outcome = "empty"
	}
	metrics.SearchRequestsTotal.WithLabelValues(variant, string(req.Mode()), outcome).Inc()
	metrics.SearchResults.WithLabelValues(variant).Observe(float64(len(out)))
	return out
}

// log prefers the request-scoped logger when the caller attached one.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

func observeStage(stage string, start time.Time) {
	metrics.SearchStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func degraded(stage string) {
	metrics.SearchDegradationsTotal.WithLabelValues(stage).Inc()
}

func keepRelevant(cands []result.Candidate, threshold float64) []result.Candidate {
	out := cands[:0:0]
	for i := range cands {
		if s, ok := cands[i].RelevanceScore(); ok && s >= threshold {
			out = append(out, cands[i])
		}
	}
	return out
}

func keepConfident(cands []result.Candidate, threshold float64) []result.Candidate {
	out := cands[:0:0]
	for i := range cands {
		if s, ok := cands[i].Score(); ok && s >= threshold {
			out = append(out, cands[i])
		}
	}
	return out
}

func sortByNormalized(cands []result.Candidate) []result.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		a, _ := cands[i].NormalizedScore()
		b, _ := cands[j].NormalizedScore()
		return a > b
	})
	return cands
}

func firstK(cands []result.Candidate, k int) []result.Candidate {
	if len(cands) > k {
		return cands[:k]
	}
	return cands
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
