package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchHybrid(ctx context.Context, q *db.HybridQuery) (*db.SearchResult, error)
	PutDoc(ctx context.Context, key string, doc []byte) error
	GetDoc(ctx context.Context, key string) ([]byte, error)
	DeleteDoc(ctx context.Context, key string) (bool, error)
}

// Repo executes query trees against the document index. It implements usecase/search.Repository.
type Repo struct {
	store  store
	index  string
	prefix string
	logger *zap.Logger
}

// New creates a search repository over the index name and document key prefix.
func New(s store, index, prefix string, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, index: index, prefix: prefix, logger: logger}
}

// Execute runs a search request and returns the hits in store order.
// Field names in the request are logical document fields.
func (r *Repo) Execute(ctx context.Context, req *query.Request) ([]result.Candidate, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	root := query.MapFields(req.Query, attributeOf)

	var (
		sr  *db.SearchResult
		err error
	)
	switch q := root.(type) {
	case *query.Hybrid:
		sr, err = r.store.SearchHybrid(ctx, &db.HybridQuery{IndexName: r.index, Legs: q.Queries, Size: req.Size})
	case *query.KNN:
		sr, err = r.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName: r.index,
			Field:     q.Field,
			Vector:    q.Vector,
			K:         min(q.K, req.Size),
			Filter:    q.Filter,
		})
	case *query.Bool:
		if query.HasKNN(q) {
			sr, err = r.searchBoolWithKNN(ctx, q, req.Size)
		} else {
			sr, err = r.store.SearchText(ctx, &db.TextQuery{IndexName: r.index, Query: q, TopK: req.Size})
		}
	default:
		sr, err = r.store.SearchText(ctx, &db.TextQuery{IndexName: r.index, Query: q, TopK: req.Size})
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}

	return r.toCandidates(sr), nil
}

// searchBoolWithKNN evaluates a bool whose should list holds knn clauses: the lexical should
// clauses and every knn clause run as separate legs and their raw scores are summed per document.
// Filters restrict every leg. A lexical side without searchable terms adds no hits.
func (r *Repo) searchBoolWithKNN(ctx context.Context, q *query.Bool, size int) (*db.SearchResult, error) {
	var lexical []query.Clause
	var knns []*query.KNN
	for _, c := range q.Should {
		if k, ok := c.(*query.KNN); ok {
			knns = append(knns, k)
			continue
		}
		if query.HasKNN(c) {
			return nil, fmt.Errorf("%w: knn must be a direct should clause", db.ErrUnsupportedQuery)
		}
		lexical = append(lexical, c)
	}

	legs := make([][]db.SearchEntry, 0, len(knns)+1)
	if len(lexical) > 0 {
		sr, err := r.store.SearchText(ctx, &db.TextQuery{
			IndexName: r.index,
			Query:     &query.Bool{Should: lexical, Filter: q.Filter, MinimumShouldMatch: q.MinimumShouldMatch},
			TopK:      size,
		})
		switch {
		case errors.Is(err, db.ErrNoSearchTerms):
		case err != nil:
			return nil, err
		default:
			legs = append(legs, sr.Entries)
		}
	}
	for _, k := range knns {
		filter := k.Filter
		if len(q.Filter) > 0 {
			filter = andFilters(k.Filter, q.Filter)
		}
		sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName: r.index,
			Field:     k.Field,
			Vector:    k.Vector,
			K:         k.K,
			Filter:    filter,
		})
		if err != nil {
			return nil, err
		}
		legs = append(legs, sr.Entries)
	}

	entries := db.SumScores(legs, size)
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func andFilters(own query.Clause, shared []query.Clause) query.Clause {
	filters := make([]query.Clause, 0, len(shared)+1)
	if own != nil {
		filters = append(filters, own)
	}
	filters = append(filters, shared...)
	return &query.Bool{Filter: filters}
}

// toCandidates maps hits to candidates, skipping (and logging) hits without a usable source.
func (r *Repo) toCandidates(sr *db.SearchResult) []result.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		raw, ok := entry.Fields[db.SourceField]
		if !ok || raw == "" {
			r.logger.Warn("Skipping malformed hit", zap.String("key", entry.Key), zap.String("reason", "missing source"))
			continue
		}
		doc, err := docFromJSON([]byte(raw), false)
		if err != nil {
			r.logger.Warn("Skipping malformed hit", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		if doc.ID == "" {
			doc.ID = strings.TrimPrefix(entry.Key, r.prefix)
		}
		out = append(out, result.New(doc, entry.Score))
	}
	return out
}

// Put stores a document under the repository's key prefix.
func (r *Repo) Put(ctx context.Context, d *document.Document) error {
	data, err := docToJSON(d)
	if err != nil {
		return err
	}
	if err := r.store.PutDoc(ctx, r.prefix+d.ID, data); err != nil {
		return fmt.Errorf("put document %s: %w", d.ID, err)
	}
	return nil
}

// Get loads a document by ID, embedding included.
func (r *Repo) Get(ctx context.Context, id string) (document.Document, error) {
	data, err := r.store.GetDoc(ctx, r.prefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return document.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return document.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return docFromJSON(data, true)
}

// Delete removes a document by ID. A missing document is domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	existed, err := r.store.DeleteDoc(ctx, r.prefix+id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if !existed {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	r.logger.Debug("document deleted", zap.String("id", id))
	return nil
}
