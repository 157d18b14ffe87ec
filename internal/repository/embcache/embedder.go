// Package embcache memoizes query embeddings. An in-process LRU sits in front of a shared
// Redis tier, and concurrent misses for the same text collapse into one provider call.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// DefaultLocalSize is the LRU capacity used when Options.LocalSize is not positive.
const DefaultLocalSize = 1024

const (
	tierLocal  = "local"
	tierShared = "shared"
)

// sharedCache is the subset of db.Cache the embedder needs.
type sharedCache interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the cache.
type Options struct {
	KeyPrefix string
	// Model is hashed into every key so switching models never serves stale vectors.
	Model     string
	TTL       time.Duration
	LocalSize int
	// Dimensions, when positive, rejects shared entries of any other length.
	Dimensions int
}

// Embedder wraps a domain.Embedder with the two cache tiers.
// Results served from either tier report zero tokens.
type Embedder struct {
	next    domain.Embedder
	shared  sharedCache
	local   *lru.Cache[string, []float32]
	flight  singleflight.Group
	opts    Options
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps next. lookups, when non-nil, is a counter vec labelled "tier" and "result".
func New(
	next domain.Embedder,
	shared sharedCache,
	opts Options,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) (*Embedder, error) {
	if opts.LocalSize <= 0 {
		opts.LocalSize = DefaultLocalSize
	}
	local, err := lru.New[string, []float32](opts.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		next:    next,
		shared:  shared,
		local:   local,
		opts:    opts,
		lookups: lookups,
		logger:  logger,
	}, nil
}

// Embed returns the vector for text from the nearest tier that has it.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.key(text)

	if vec, ok := e.local.Get(key); ok {
		e.observe(tierLocal, true)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	e.observe(tierLocal, false)

	v, err, _ := e.flight.Do(key, func() (any, error) {
		return e.fill(ctx, key, text)
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return v.(domain.EmbeddingResult), nil
}

// fill consults the shared tier and falls back to the provider, populating both tiers.
func (e *Embedder) fill(ctx context.Context, key, text string) (domain.EmbeddingResult, error) {
	if vec, ok := e.load(ctx, key); ok {
		e.observe(tierShared, true)
		e.local.Add(key, vec)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	e.observe(tierShared, false)

	res, err := e.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	e.local.Add(key, res.Embedding)
	if err := e.shared.Save(ctx, key, encodeVector(res.Embedding), e.opts.TTL); err != nil {
		e.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// load treats every shared-tier failure as a miss.
func (e *Embedder) load(ctx context.Context, key string) ([]float32, bool) {
	data, err := e.shared.Load(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		e.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data, e.opts.Dimensions)
	if err != nil {
		e.logger.Warn("Discarding cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (e *Embedder) key(text string) string {
	h := sha256.New()
	h.Write([]byte(e.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return e.opts.KeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (e *Embedder) observe(tier string, hit bool) {
	if e.lookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	e.lookups.WithLabelValues(tier, result).Inc()
}
