package query

import (
	"encoding/json"
	"strconv"
)

const dateLayout = "2006-01-02"

// Source renders the request as an OpenSearch-style JSON body.
func (r *Request) Source() map[string]any {
	body := map[string]any{"size": r.Size}
	if r.Query != nil {
		body["query"] = Source(r.Query)
	}
	return body
}

// String returns the JSON body with vectors elided, for logs.
func (r *Request) String() string {
	elided := *r
	elided.Query = elideVectors(r.Query)
	b, err := json.Marshal(elided.Source())
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Source renders a single clause.
func Source(c Clause) map[string]any {
	switch q := c.(type) {
	case *Match:
		opts := map[string]any{"query": q.Text, "fuzziness": q.Fuzziness}
		if q.Boost != 0 {
			opts["boost"] = q.Boost
		}
		return map[string]any{"match": map[string]any{q.Field: opts}}

	case *MultiMatch:
		fields := make([]string, len(q.Fields))
		for i, f := range q.Fields {
			fields[i] = f.Field
			if f.Boost != 0 && f.Boost != 1 {
				fields[i] += "^" + strconv.FormatFloat(f.Boost, 'g', -1, 64)
			}
		}
		return map[string]any{"multi_match": map[string]any{
			"query":     q.Text,
			"fields":    fields,
			"type":      "best_fields",
			"fuzziness": q.Fuzziness,
		}}

	case *Term:
		opts := map[string]any{"value": q.Value}
		if q.CaseInsensitive {
			opts["case_insensitive"] = true
		}
		return map[string]any{"term": map[string]any{q.Field: opts}}

	case *Nested:
		return map[string]any{"nested": map[string]any{"path": q.Path, "query": Source(q.Query)}}

	case *Bool:
		b := map[string]any{}
		if len(q.Should) > 0 {
			b["should"] = sourceAll(q.Should)
		}
		if len(q.Filter) > 0 {
			b["filter"] = sourceAll(q.Filter)
		}
		if q.MinimumShouldMatch > 0 {
			b["minimum_should_match"] = q.MinimumShouldMatch
		}
		return map[string]any{"bool": b}

	case *DateRange:
		bounds := map[string]any{}
		if q.From != nil {
			bounds["gte"] = q.From.Format(dateLayout)
		}
		if q.To != nil {
			bounds["lte"] = q.To.Format(dateLayout)
		}
		return map[string]any{"range": map[string]any{q.Field: bounds}}

	case *KNN:
		opts := map[string]any{"vector": q.Vector, "k": q.K}
		if q.Filter != nil {
			opts["filter"] = Source(q.Filter)
		}
		return map[string]any{"knn": map[string]any{q.Field: opts}}

	case *Hybrid:
		return map[string]any{"hybrid": map[string]any{"queries": sourceAll(q.Queries)}}
	}
	return map[string]any{}
}

func sourceAll(cs []Clause) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = Source(c)
	}
	return out
}

func elideVectors(c Clause) Clause {
	switch q := c.(type) {
	case *KNN:
		cp := *q
		cp.Vector = nil
		return &cp
	case *Bool:
		cp := *q
		cp.Should = elideAll(q.Should)
		return &cp
	case *Hybrid:
		return &Hybrid{Queries: elideAll(q.Queries)}
	}
	return c
}

func elideAll(cs []Clause) []Clause {
	out := make([]Clause, len(cs))
	for i, c := range cs {
		out[i] = elideVectors(c)
	}
	return out
}
