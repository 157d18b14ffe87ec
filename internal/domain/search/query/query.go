// Package query is a store-neutral search query tree. Builders in the usecase layer assemble it,
// storage adapters translate it, and Source renders it as an OpenSearch-style request body.
package query

import (
	"errors"
	"fmt"
	"time"
)

// Clause is a node of the query tree. The set of implementations is closed.
type Clause interface {
	clause()
}

// Match is a full-text match on one field, OR semantics between tokens.
type Match struct {
	Field     string
	Text      string
	Fuzziness int
	Boost     float64 // 0 means 1
}

// FieldBoost is a field with its relevance multiplier.
type FieldBoost struct {
	Field string
	Boost float64
}

// MultiMatch matches the same text against several boosted fields, scoring the best field.
type MultiMatch struct {
	Text      string
	Fields    []FieldBoost
	Fuzziness int
}

// Term is an exact keyword match.
type Term struct {
	Field           string
	Value           string
	CaseInsensitive bool
}

// Nested scopes a clause to the objects of an array field.
type Nested struct {
	Path  string
	Query Clause
}

// Bool combines clauses. Should clauses score and, when MinimumShouldMatch > 0,
// at least that many must match. Filter clauses restrict without scoring.
type Bool struct {
	Should             []Clause
	Filter             []Clause
	MinimumShouldMatch int
}

// DateRange is an inclusive date range filter. A nil bound is open.
type DateRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// KNN is a k-nearest-neighbour vector query, optionally pre-filtered.
type KNN struct {
	Field  string
	Vector []float32
	K      int
	Filter Clause
}

// Hybrid executes its sub-queries independently and fuses their score distributions
// with the store's configured normalization and combination technique.
type Hybrid struct {
	Queries []Clause
}

func (*Match) clause()      {}
func (*MultiMatch) clause() {}
func (*Term) clause()       {}
func (*Nested) clause()     {}
func (*Bool) clause()       {}
func (*DateRange) clause()  {}
func (*KNN) clause()        {}
func (*Hybrid) clause()     {}

// Request is a complete search request.
type Request struct {
	Query Clause
	Size  int
}

// Validate checks structural invariants that every adapter relies on.
func (r *Request) Validate() error {
	if r.Query == nil {
		return errors.New("query is required")
	}
	if r.Size <= 0 {
		return errors.New("size must be positive")
	}
	return validate(r.Query, false)
}

func validate(c Clause, inHybrid bool) error {
	switch q := c.(type) {
	case *Match:
		if q.Field == "" || q.Text == "" {
			return errors.New("match requires field and text")
		}
	case *MultiMatch:
		if q.Text == "" || len(q.Fields) == 0 {
			return errors.New("multi_match requires text and fields")
		}
	case *Term:
		if q.Field == "" || q.Value == "" {
			return errors.New("term requires field and value")
		}
	case *Nested:
		if q.Path == "" || q.Query == nil {
			return errors.New("nested requires path and query")
		}
		return validate(q.Query, false)
	case *Bool:
		if len(q.Should) == 0 && len(q.Filter) == 0 {
			return errors.New("bool requires at least one clause")
		}
		for _, s := range q.Should {
			if err := validate(s, false); err != nil {
				return err
			}
		}
		for _, f := range q.Filter {
			if HasKNN(f) {
				return errors.New("knn is not allowed in a filter")
			}
			if err := validate(f, false); err != nil {
				return err
			}
		}
	case *DateRange:
		if q.Field == "" || (q.From == nil && q.To == nil) {
			return errors.New("range requires field and a bound")
		}
	case *KNN:
		if q.Field == "" || len(q.Vector) == 0 || q.K <= 0 {
			return errors.New("knn requires field, vector and positive k")
		}
		if q.Filter != nil {
			return validate(q.Filter, false)
		}
	case *Hybrid:
		if inHybrid {
			return errors.New("hybrid cannot be nested")
		}
		if len(q.Queries) < 2 {
			return errors.New("hybrid requires at least two sub-queries")
		}
		for _, s := range q.Queries {
			if err := validate(s, true); err != nil {
				return err
			}
		}
	case nil:
		return errors.New("nil clause")
	default:
		return fmt.Errorf("unsupported clause %T", c)
	}
	return nil
}

// Walk visits c and its descendants depth-first until fn returns false.
func Walk(c Clause, fn func(Clause) bool) bool {
	if c == nil {
		return true
	}
	if !fn(c) {
		return false
	}
	switch q := c.(type) {
	case *Nested:
		return Walk(q.Query, fn)
	case *Bool:
		for _, s := range q.Should {
			if !Walk(s, fn) {
				return false
			}
		}
		for _, f := range q.Filter {
			if !Walk(f, fn) {
				return false
			}
		}
	case *KNN:
		return Walk(q.Filter, fn)
	case *Hybrid:
		for _, s := range q.Queries {
			if !Walk(s, fn) {
				return false
			}
		}
	}
	return true
}

// HasKNN reports whether any clause in the tree is a k-NN query.
func HasKNN(c Clause) bool {
	found := false
	Walk(c, func(n Clause) bool {
		if _, ok := n.(*KNN); ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// MapFields returns a copy of the tree with every field name and nested path passed through fn.
func MapFields(c Clause, fn func(string) string) Clause {
	switch q := c.(type) {
	case *Match:
		cp := *q
		cp.Field = fn(q.Field)
		return &cp
	case *MultiMatch:
		cp := *q
		cp.Fields = make([]FieldBoost, len(q.Fields))
		for i, f := range q.Fields {
			cp.Fields[i] = FieldBoost{Field: fn(f.Field), Boost: f.Boost}
		}
		return &cp
	case *Term:
		cp := *q
		cp.Field = fn(q.Field)
		return &cp
	case *Nested:
		return &Nested{Path: fn(q.Path), Query: MapFields(q.Query, fn)}
	case *Bool:
		return &Bool{
			Should:             mapAll(q.Should, fn),
			Filter:             mapAll(q.Filter, fn),
			MinimumShouldMatch: q.MinimumShouldMatch,
		}
	case *DateRange:
		cp := *q
		cp.Field = fn(q.Field)
		return &cp
	case *KNN:
		cp := *q
		cp.Field = fn(q.Field)
		if q.Filter != nil {
			cp.Filter = MapFields(q.Filter, fn)
		}
		return &cp
	case *Hybrid:
		return &Hybrid{Queries: mapAll(q.Queries, fn)}
	default:
		return c
	}
}

func mapAll(cs []Clause, fn func(string) string) []Clause {
	if cs == nil {
		return nil
	}
	out := make([]Clause, len(cs))
	for i, c := range cs {
		out[i] = MapFields(c, fn)
	}
	return out
}
