package search

import (
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
)

// Field boosts for the Pro lexical sub-query.
const (
	proTitleBoost    = 2.0
	proContentBoost  = 1.5
	proSummaryBoost  = 2.0
	proEntitiesBoost = 1.5
	proTopicsBoost   = 1.5

	// alternateMultiplier scales the boosts of LLM-suggested phrasings relative to the user's query.
	alternateMultiplier = 0.5
)

// dateRange returns the publication date filter of req, or nil when it has no bounds.
func dateRange(req *request.Request) *query.DateRange {
	if !req.HasDateRange() {
		return nil
	}
	return &query.DateRange{Field: document.FieldPublishedAt, From: req.From(), To: req.To()}
}

func filters(req *request.Request) []query.Clause {
	if dr := dateRange(req); dr != nil {
		return []query.Clause{dr}
	}
	return nil
}

// knnFilter avoids a typed-nil clause when there is no date range.
func knnFilter(req *request.Request) query.Clause {
	if dr := dateRange(req); dr != nil {
		return dr
	}
	return nil
}

func nestedMatch(path, field, text string, fuzziness int, boost float64) query.Clause {
	return &query.Nested{Path: path, Query: &query.Match{Field: field, Text: text, Fuzziness: fuzziness, Boost: boost}}
}

// simpleQuery matches the query against entity and topic annotations only:
// fuzzy text match plus exact case-insensitive keyword match. No vector component.
func simpleQuery(req *request.Request) *query.Request {
	q, fz := req.Query(), req.Fuzziness()
	return &query.Request{
		Query: &query.Bool{
			Should: []query.Clause{
				nestedMatch(document.PathTopics, document.FieldTopicsText, q, fz, 0),
				nestedMatch(document.PathEntities, document.FieldEntitiesText, q, fz, 0),
				&query.Nested{Path: document.PathTopics, Query: &query.Term{
					Field: document.FieldTopicsKeyword, Value: q, CaseInsensitive: true,
				}},
				&query.Nested{Path: document.PathEntities, Query: &query.Term{
					Field: document.FieldEntitiesKeyword, Value: q, CaseInsensitive: true,
				}},
			},
			Filter:             filters(req),
			MinimumShouldMatch: 1,
		},
		Size: req.K(),
	}
}

// advancedQuery is a title/summary match and a 3k nearest-neighbour clause, either of which may match.
func advancedQuery(req *request.Request, vec []float32) *query.Request {
	return &query.Request{
		Query: &query.Bool{
			Should: []query.Clause{
				&query.MultiMatch{
					Text: req.Query(),
					Fields: []query.FieldBoost{
						{Field: document.FieldTitle, Boost: 3},
						{Field: document.FieldSummary, Boost: 2},
					},
					Fuzziness: req.Fuzziness(),
				},
				&query.KNN{Field: document.FieldEmbedding, Vector: vec, K: 3 * req.K()},
			},
			Filter: filters(req),
		},
		Size: req.K(),
	}
}

// proLexical builds boosted matches for every expanded term. The first term is the user's
// query at full weight; the rest are alternates at alternateMultiplier.
func proLexical(terms []string, fuzziness, minimumShouldMatch int, filter []query.Clause) *query.Bool {
	should := make([]query.Clause, 0, 5*len(terms))
	for i, term := range terms {
		m := 1.0
		if i > 0 {
			m = alternateMultiplier
		}
		should = append(should,
			&query.Match{Field: document.FieldTitle, Text: term, Fuzziness: fuzziness, Boost: proTitleBoost * m},
			&query.Match{Field: document.FieldContent, Text: term, Fuzziness: fuzziness, Boost: proContentBoost * m},
			&query.Match{Field: document.FieldSummary, Text: term, Fuzziness: fuzziness, Boost: proSummaryBoost * m},
			nestedMatch(document.PathEntities, document.FieldEntitiesText, term, fuzziness, proEntitiesBoost*m),
			nestedMatch(document.PathTopics, document.FieldTopicsText, term, fuzziness, proTopicsBoost*m),
		)
	}
	return &query.Bool{Should: should, Filter: filter, MinimumShouldMatch: minimumShouldMatch}
}

// hybridQuery fuses a lexical sub-query with a nearest-neighbour sub-query. The date filter,
// when present, restricts both.
func hybridQuery(req *request.Request, lexical *query.Bool, vec []float32, semanticK, size int) *query.Request {
	return &query.Request{
		Query: &query.Hybrid{Queries: []query.Clause{
			lexical,
			&query.KNN{Field: document.FieldEmbedding, Vector: vec, K: semanticK, Filter: knnFilter(req)},
		}},
		Size: size,
	}
}

// documentsLexical is the search_documents lexical side: an exact best-fields multi-match on
// title and content plus fuzzy field and annotation matches.
func documentsLexical(req *request.Request) *query.Bool {
	q, fz := req.Query(), req.Fuzziness()
	return &query.Bool{
		Should: []query.Clause{
			&query.MultiMatch{
				Text: q,
				Fields: []query.FieldBoost{
					{Field: document.FieldTitle, Boost: 2},
					{Field: document.FieldContent, Boost: 3},
				},
			},
			&query.Match{Field: document.FieldTitle, Text: q, Fuzziness: fz, Boost: 2.0},
			&query.Match{Field: document.FieldContent, Text: q, Fuzziness: fz, Boost: 1.5},
			nestedMatch(document.PathEntities, document.FieldEntitiesText, q, fz, 1.5),
			nestedMatch(document.PathTopics, document.FieldTopicsText, q, fz, 1.5),
		},
		Filter:             filters(req),
		MinimumShouldMatch: 1,
	}
}
