package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// maxDocChars bounds each document excerpt in the ranking prompt.
const maxDocChars = 600

const llmSystemPrompt = "You are a relevance ranking model. Given a search query and numbered documents, " +
	"score how well each document answers the query from 0 (irrelevant) to 1 (perfect match). " +
	`Reply with JSON only: {"results":[{"index":<document number>,"score":<0..1>}]}, ` +
	"most relevant first, listing at most the requested number of documents."

// LLMRanker implements domain.Ranker by asking a completion model to score the documents.
// It is the fallback ranking provider when no dedicated rerank endpoint is configured.
type LLMRanker struct {
	completer domain.Completer
}

// NewLLMRanker creates a completion-backed ranking provider.
func NewLLMRanker(c domain.Completer) *LLMRanker {
	return &LLMRanker{completer: c}
}

type llmRanking struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
}

// Rank implements domain.Ranker.
func (l *LLMRanker) Rank(ctx context.Context, query string, documents []string, topN int) ([]domain.RankedIndex, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	res, err := l.completer.Complete(ctx, buildRankPrompt(query, documents, topN), domain.CompletionOptions{
		System:      llmSystemPrompt,
		MaxTokens:   32 * (topN + 2),
		Temperature: domain.Temperature(0),
	})
	if err != nil {
		return nil, fmt.Errorf("llm rank: %w: %w", err, domain.ErrRerankProviderError)
	}

	return parseRanking(res.Text, len(documents), topN)
}

func buildRankPrompt(query string, documents []string, topN int) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nReturn the ")
	b.WriteString(strconv.Itoa(topN))
	b.WriteString(" most relevant documents.\n\n")
	for i, d := range documents {
		b.WriteString("[")
		b.WriteString(strconv.Itoa(i))
		b.WriteString("] ")
		b.WriteString(excerpt(d, maxDocChars))
		b.WriteString("\n\n")
	}
	return b.String()
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// parseRanking decodes the model's JSON, tolerating markdown code fences, and returns a
// ranking with unique in-range indices ordered by descending score.
func parseRanking(text string, n, topN int) ([]domain.RankedIndex, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed llmRanking
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("decode llm ranking: %w: %w", err, domain.ErrRerankProviderError)
	}

	seen := make(map[int]bool, len(parsed.Results))
	out := make([]domain.RankedIndex, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= n || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		out = append(out, domain.RankedIndex{Index: r.Index, Score: min(max(r.Score, 0), 1)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("llm ranking has no valid results: %w", domain.ErrRerankProviderError)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}
