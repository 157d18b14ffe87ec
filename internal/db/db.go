// Package db defines the storage contract the search engine runs on: JSON documents
// addressed by key, a byte cache, and query engine indexes over the documents.
package db

import (
	"context"
	"time"
)

// Store is everything a Redis 8 deployment offers. Consumers depend on the narrow
// interfaces below instead.
//
//nolint:interfacebloat // facade; consumers take the narrow interfaces
type Store interface {
	Pinger
	DocStore
	Cache
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocStore keeps whole JSON documents under string keys.
type DocStore interface {
	PutDoc(ctx context.Context, key string, doc []byte) error
	// GetDoc returns ErrKeyNotFound for a missing key.
	GetDoc(ctx context.Context, key string) ([]byte, error)
	// DeleteDoc reports whether the key existed.
	DeleteDoc(ctx context.Context, key string) (bool, error)
}

// Cache stores opaque values with an optional expiry.
type Cache interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager controls index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DropIndex removes the index and, when deleteDocs is set, the documents it covers.
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexStats(ctx context.Context, name string) (*IndexStats, error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher runs queries against an index.
type Searcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchHybrid(ctx context.Context, q *HybridQuery) (*SearchResult, error)
}
