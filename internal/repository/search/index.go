package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
)

// Index attribute names. Logical document fields map onto these through attributeOf.
const (
	attrTitle       = "title"
	attrContent     = "content"
	attrSummary     = "summary"
	attrEntities    = "entities_text"
	attrEntitiesTag = "entities_tag"
	attrTopics      = "topics_text"
	attrTopicsTag   = "topics_tag"
	attrURL         = "url"
	attrPublished   = "published_ts"
	attrEmbedding   = "embedding"
)

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

var fieldAttributes = map[string]string{
	document.FieldTitle:           attrTitle,
	document.FieldContent:         attrContent,
	document.FieldSummary:         attrSummary,
	document.FieldEntitiesText:    attrEntities,
	document.FieldEntitiesKeyword: attrEntitiesTag,
	document.FieldTopicsText:      attrTopics,
	document.FieldTopicsKeyword:   attrTopicsTag,
	document.FieldURL:             attrURL,
	document.FieldPublishedAt:     attrPublished,
	document.FieldEmbedding:       attrEmbedding,
}

// attributeOf maps a logical field name to its index attribute.
// Unknown names (nested paths among them) pass through unchanged.
func attributeOf(field string) string {
	if a, ok := fieldAttributes[field]; ok {
		return a
	}
	return field
}

// buildIndex describes the document index: full-text title/content/summary and annotation text,
// exact-match annotation tags, a numeric publication timestamp and an HNSW cosine vector.
// Stopwords are kept so lexical matching sees every query token.
func buildIndex(name, prefix string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(name).
		Prefix(prefix).
		NoStopwords().
		Text("$.title", attrTitle).
		Text("$.content", attrContent).
		Text("$.summary", attrSummary).
		Text("$.entities[*].text", attrEntities).
		Text("$.topics[*].text", attrTopics).
		Tag("$.entities[*].text", attrEntitiesTag).
		Tag("$.topics[*].text", attrTopicsTag).
		Tag("$.url", attrURL).
		Numeric("$.published_ts", attrPublished).
		Vector("$.embedding", attrEmbedding, db.VectorSpec{
			Dim:         dim,
			Distance:    db.DistanceCosine,
			M:           hnsw.M,
			EFConstruct: hnsw.EFConstruct,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: build index %s: %w", domain.ErrInvalidSchema, name, err)
	}
	return def, nil
}

// indexStore is the consumer interface for index provisioning (ISP).
type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// EnsureIndex creates the document index when it does not exist yet.
// It reports whether the index was created.
func EnsureIndex(ctx context.Context, s indexStore, name, prefix string, dim int, hnsw HNSWConfig) (bool, error) {
	exists, err := s.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	def, err := buildIndex(name, prefix, dim, hnsw)
	if err != nil {
		return false, err
	}
	if err := s.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", name, err)
	}
	return true, nil
}

// indexAdmin is the consumer interface for index inspection and removal.
type indexAdmin interface {
	IndexStats(ctx context.Context, name string) (*db.IndexStats, error)
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
}

// IndexStats returns the server's view of the index. A missing index is domain.ErrNotFound.
func IndexStats(ctx context.Context, s indexAdmin, name string) (*db.IndexStats, error) {
	st, err := s.IndexStats(ctx, name)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("index stats %s: %w", name, err)
	}
	return st, nil
}

// DropIndex removes the index, and its documents when deleteDocs is set.
// A missing index is domain.ErrNotFound.
func DropIndex(ctx context.Context, s indexAdmin, name string, deleteDocs bool) error {
	if err := s.DropIndex(ctx, name, deleteDocs); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
		}
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}
