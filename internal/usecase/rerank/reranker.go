// Package rerank reorders search candidates with a cross-document relevance model.
package rerank

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
)

// Reranker batches candidate texts into one ranking call and maps the ranking back onto
// the candidates. Ranking failures fall back to the leading candidates unranked.
type Reranker struct {
	ranker  domain.Ranker
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a reranker. A nil ranker makes every call take the fallback path.
func New(ranker domain.Ranker, timeout time.Duration, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{ranker: ranker, timeout: timeout, logger: logger}
}

// Rerank returns at most topN candidates ordered as the ranking provider reported them,
// each carrying a relevance score in [0,1]. Candidates without comparison text are not sent.
// On fallback the first min(len, topN) candidates are returned unchanged and Rerank reports false.
func (r *Reranker) Rerank(ctx context.Context, query string, cands []result.Candidate, topN int) ([]result.Candidate, bool) {
	if topN <= 0 || topN > len(cands) {
		topN = len(cands)
	}
	if len(cands) == 0 {
		return nil, true
	}

	texts := make([]string, 0, len(cands))
	positions := make([]int, 0, len(cands))
	for i := range cands {
		doc := cands[i].Document()
		if text := doc.RankText(); text != "" {
			texts = append(texts, text)
			positions = append(positions, i)
		}
	}

	if len(texts) == 0 {
		r.logger.Warn("No candidate has rank text, skipping rerank", zap.Int("candidates", len(cands)))
		return fallback(cands, topN), false
	}
	if r.ranker == nil {
		return fallback(cands, topN), false
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ranked, err := r.ranker.Rank(ctx, query, texts, min(topN, len(texts)))
	if err != nil {
		r.logger.Warn("Rerank failed, returning unranked candidates", zap.Int("candidates", len(cands)), zap.Error(err))
		return fallback(cands, topN), false
	}
	if len(ranked) == 0 {
		r.logger.Warn("Rerank returned no results, returning unranked candidates", zap.Int("candidates", len(cands)))
		return fallback(cands, topN), false
	}

	out := make([]result.Candidate, 0, min(topN, len(ranked)))
	seen := make([]bool, len(positions))
	for _, rk := range ranked {
		switch {
		case rk.Index < 0 || rk.Index >= len(positions):
			r.logger.Warn("Rerank returned out-of-range index", zap.Int("index", rk.Index))
			continue
		case seen[rk.Index]:
			r.logger.Debug("Rerank returned duplicate index", zap.Int("index", rk.Index))
			continue
		}
		seen[rk.Index] = true
		out = append(out, cands[positions[rk.Index]].WithRelevanceScore(min(max(rk.Score, 0), 1)))
		if len(out) == topN {
			break
		}
	}
	if len(out) == 0 {
		r.logger.Warn("Rerank returned no usable index, returning unranked candidates", zap.Int("candidates", len(cands)))
		return fallback(cands, topN), false
	}
	return out, true
}

func fallback(cands []result.Candidate, topN int) []result.Candidate {
	out := make([]result.Candidate, topN)
	copy(out, cands[:topN])
	return out
}
