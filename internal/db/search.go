package db

import "github.com/sagar8080/semantic-search-system/internal/domain/search/query"

// ScoreField is the attribute name under which KNN distances are returned.
const ScoreField = "__vector_score"

// SourceField is the attribute holding the whole JSON document in a hit.
const SourceField = "$"

// TextQuery is the input for a scored lexical search.
// Field names in Query are index attribute names.
type TextQuery struct {
	IndexName string
	Query     query.Clause
	TopK      int
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	Field     string
	Vector    []float32
	K         int
	Filter    query.Clause // optional lexical pre-filter
}

// HybridQuery runs every leg independently and fuses the score distributions
// with the store's configured Fusion. A leg is either a lexical clause or a *query.KNN.
type HybridQuery struct {
	IndexName string
	Legs      []query.Clause
	Size      int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
