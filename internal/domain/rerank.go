package domain

import "context"

// Ranker is a cross-document relevance model. It scores every document against the query
// in one call and returns at most topN entries ordered by descending relevance.
type Ranker interface {
	Rank(ctx context.Context, query string, documents []string, topN int) ([]RankedIndex, error)
}

// RankedIndex points back into the documents slice passed to Rank.
type RankedIndex struct {
	Index int
	Score float64 // relevance in [0,1]
}
