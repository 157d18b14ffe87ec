package semsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sagar8080/semantic-search-system/internal/db"
	dbRedis "github.com/sagar8080/semantic-search-system/internal/db/redis"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	domdoc "github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
	answeruc "github.com/sagar8080/semantic-search-system/internal/usecase/answer"
	"github.com/sagar8080/semantic-search-system/internal/usecase/expansion"
	healthuc "github.com/sagar8080/semantic-search-system/internal/usecase/health"
	rerankuc "github.com/sagar8080/semantic-search-system/internal/usecase/rerank"
	searchuc "github.com/sagar8080/semantic-search-system/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultIndex            = "semsearch:docs:idx"
	defaultKeyPrefix        = "semsearch:doc:"
	defaultVectorDimensions = 256
	defaultHNSWM            = 16
	defaultHNSWEFConstruct  = 200
	providerTimeout         = 30 * time.Second
	healthTimeout           = 5 * time.Second
)

// Internal interfaces, replaced by mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) []result.Candidate
	KB(ctx context.Context, req *request.Request) []result.Candidate
	Documents(ctx context.Context, req *request.Request) []result.Candidate
}

type answerUseCase interface {
	Answer(ctx context.Context, question string) (answeruc.Answer, error)
}

type documentRepo interface {
	Put(ctx context.Context, d *domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexStats(ctx context.Context, name string) (*db.IndexStats, error)
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
}

// Client is the semsearch SDK entry point.
type Client struct {
	store     db.Store
	index     indexStore
	cfg       *clientConfig
	embedder  domain.Embedder // nil when not configured
	docs      documentRepo
	searchSvc searchUseCase
	answerSvc answerUseCase // nil when no completer is configured
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	applyDefaults(cfg)

	if len(cfg.addrs) == 0 {
		return nil, errors.New("semsearch: database address required (use WithRedis)")
	}

	fusion := db.DefaultFusion()
	if cfg.fusion != "" {
		fusion.Combination = db.Combination(cfg.fusion)
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
		Fusion:   fusion,
	})
	if err != nil {
		return nil, fmt.Errorf("semsearch: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("semsearch: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func applyDefaults(cfg *clientConfig) {
	if cfg.index == "" {
		cfg.index = defaultIndex
	}
	if cfg.keyPrefix == "" {
		cfg.keyPrefix = defaultKeyPrefix
	}
	if cfg.vectorDimensions <= 0 {
		cfg.vectorDimensions = defaultVectorDimensions
	}
	if cfg.hnswM <= 0 {
		cfg.hnswM = defaultHNSWM
	}
	if cfg.hnswEFConstruct <= 0 {
		cfg.hnswEFConstruct = defaultHNSWEFConstruct
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	repo := searchrepo.New(store, cfg.index, cfg.keyPrefix, cfg.logger)

	// Vector searches degrade to empty results without an embedder.
	var (
		domEmb   domain.Embedder = noopEmbedder{}
		embedder domain.Embedder
	)
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
		domEmb = embedder
	}

	var (
		completer domain.Completer
		expander  searchuc.Expander
		reranker  searchuc.Reranker
	)
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
		expander = expansion.New(completer, providerTimeout, cfg.logger)
	}
	if cfg.ranker != nil {
		reranker = rerankuc.New(&rankerAdapter{inner: cfg.ranker}, providerTimeout, cfg.logger)
	}

	searchSvc := searchuc.New(repo, domEmb, expander, reranker, searchuc.Config{
		Dimensions:       cfg.vectorDimensions,
		EmbeddingTimeout: providerTimeout,
		StoreTimeout:     providerTimeout,
	}, cfg.logger)

	c := &Client{
		store:     store,
		index:     store,
		cfg:       cfg,
		embedder:  embedder,
		docs:      repo,
		searchSvc: searchSvc,
		obs:       obs,
	}
	if completer != nil {
		c.answerSvc = answeruc.New(searchSvc, completer, providerTimeout, cfg.logger)
	}

	checks := map[string]healthuc.Checker{}
	if hc, ok := cfg.embedder.(healthuc.Checker); ok {
		checks["embedding"] = hc
	}
	if hc, ok := cfg.completer.(healthuc.Checker); ok {
		checks["completion"] = hc
	}
	c.healthSvc = healthuc.New(store, checks, healthTimeout)
	return c
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer c.obs.track("ping")(&err)

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the document index when it is missing and reports whether it did.
func (c *Client) EnsureIndex(ctx context.Context) (created bool, err error) {
	defer c.obs.track("ensure_index")(&err)

	return searchrepo.EnsureIndex(ctx, c.index, c.cfg.index, c.cfg.keyPrefix, c.cfg.vectorDimensions,
		searchrepo.HNSWConfig{M: c.cfg.hnswM, EFConstruct: c.cfg.hnswEFConstruct})
}

// Put stores a document. A document without an embedding is embedded from its title and
// summary when an Embedder is configured, and stored lexical-only otherwise.
func (c *Client) Put(ctx context.Context, doc Document) (err error) {
	defer c.obs.track("put")(&err)

	d := toDomainDocument(&doc)
	if err = d.Validate(c.cfg.vectorDimensions); err != nil {
		if len(d.Embedding) > 0 && len(d.Embedding) != c.cfg.vectorDimensions {
			return fmt.Errorf("%w: %w", ErrVectorDimMismatch, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if len(d.Embedding) == 0 && c.embedder != nil {
		res, embErr := c.embedder.Embed(ctx, d.RankText())
		if embErr != nil {
			return fmt.Errorf("%w: %w", ErrEmbeddingProviderError, embErr)
		}
		if err = res.Check(c.cfg.vectorDimensions); err != nil {
			return fmt.Errorf("embed document %s: %w", d.ID, err)
		}
		d.Embedding = res.Embedding
	}

	return c.docs.Put(ctx, &d)
}

// Get loads a document by ID. It returns ErrNotFound when the document does not exist.
func (c *Client) Get(ctx context.Context, id string) (doc Document, err error) {
	defer c.obs.track("get")(&err)

	d, err := c.docs.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	return fromDomainDocument(&d), nil
}

// Search runs the recipe of opts.Mode. Provider or store failures yield an empty
// result; only invalid options return an error.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	return c.run(ctx, "search", query, opts, c.searchSvc.Search)
}

// KB runs the knowledge-base variant: a thresholded pro search of at most ten results.
func (c *Client) KB(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	return c.run(ctx, "search_kb", query, opts, c.searchSvc.KB)
}

// Documents runs a plain hybrid search without expansion or reranking.
func (c *Client) Documents(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	return c.run(ctx, "search_documents", query, opts, c.searchSvc.Documents)
}

func (c *Client) run(
	ctx context.Context, op, query string, opts SearchOptions,
	fn func(context.Context, *request.Request) []result.Candidate,
) (res []Result, err error) {
	defer c.obs.track(op)(&err)

	req, err := opts.toRequest(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return fromCandidates(fn(ctx, &req)), nil
}

// Answer synthesizes a reply grounded on knowledge-base results.
func (c *Client) Answer(ctx context.Context, question string) (ans Answer, err error) {
	defer c.obs.track("answer")(&err)

	if c.answerSvc == nil {
		return Answer{}, ErrCompleterNotConfigured
	}
	a, err := c.answerSvc.Answer(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	return fromAnswer(&a), nil
}
