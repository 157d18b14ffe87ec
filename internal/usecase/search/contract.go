package search

import (
	"context"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
)

// Repository executes a query tree against the document store.
type Repository interface {
	Execute(ctx context.Context, req *query.Request) ([]result.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Expander produces the Expanded Term Set: the query first, then alternates. It never fails.
type Expander interface {
	Expand(ctx context.Context, query string) []string
}

// Reranker reorders candidates by relevance. The bool is false when it fell back to the
// leading candidates without relevance scores.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []result.Candidate, topN int) ([]result.Candidate, bool)
}
