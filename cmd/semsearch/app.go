package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/config"
	"github.com/sagar8080/semantic-search-system/internal/db"
	dbRedis "github.com/sagar8080/semantic-search-system/internal/db/redis"
	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
	"github.com/sagar8080/semantic-search-system/internal/repository/embcache"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
	ollamaT "github.com/sagar8080/semantic-search-system/internal/transport/ollama"
	openaiT "github.com/sagar8080/semantic-search-system/internal/transport/openai"
	rerankT "github.com/sagar8080/semantic-search-system/internal/transport/rerank"
	answeruc "github.com/sagar8080/semantic-search-system/internal/usecase/answer"
	completionuc "github.com/sagar8080/semantic-search-system/internal/usecase/completion"
	embeddinguc "github.com/sagar8080/semantic-search-system/internal/usecase/embedding"
	"github.com/sagar8080/semantic-search-system/internal/usecase/expansion"
	healthuc "github.com/sagar8080/semantic-search-system/internal/usecase/health"
	rerankuc "github.com/sagar8080/semantic-search-system/internal/usecase/rerank"
	searchuc "github.com/sagar8080/semantic-search-system/internal/usecase/search"
)

const healthCheckTimeout = 5 * time.Second

// app is the wired object graph shared by the serve and search commands.
type app struct {
	cfg    config.Config
	store  *dbRedis.Store
	search *searchuc.Service
	answer *answeruc.Service
	health *healthuc.Service
	logger *zap.Logger
}

func (a *app) Close() {
	a.store.Close()
}

// openStore connects to Redis and waits until it answers.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
		Fusion:   fusionFromConfig(cfg.Search),
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	return store, nil
}

// buildApp is the composition root.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics.RegisterProviderMetrics()
	metrics.RegisterSearchMetrics()

	baseEmbedder := openaiT.NewEmbedder(&openaiT.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder, err := buildEmbedder(baseEmbedder, store, cfg.Embedding, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	completer, completionHealth, err := buildCompleter(cfg.Completion, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	var reranker searchuc.Reranker
	if ranker := buildRanker(cfg.Rerank, completer, logger); ranker != nil {
		reranker = rerankuc.New(ranker, cfg.Timeouts.Rerank(), logger)
	}

	expander := expansion.New(completer, cfg.Timeouts.Completion(), logger)

	repo := searchrepo.New(store, cfg.Database.Index, cfg.Database.KeyPrefix, logger)
	searchSvc := searchuc.New(repo, embedder, expander, reranker, searchuc.Config{
		RerankWindowFactor:   cfg.Search.RerankWindowFactor,
		SemanticFloor:        cfg.Search.SemanticFloor,
		KBMaxK:               cfg.Search.KBMaxK,
		KBRelevanceThreshold: cfg.Search.KBRelevanceThreshold,
		KBScoreThreshold:     cfg.Search.KBScoreThreshold,
		MinimumShouldMatch:   cfg.Search.MinimumShouldMatch,
		Dimensions:           cfg.Embedding.Dimensions,
		EmbeddingTimeout:     cfg.Timeouts.Embedding(),
		StoreTimeout:         cfg.Timeouts.Store(),
	}, logger)

	answerSvc := answeruc.New(searchSvc, completer, cfg.Timeouts.Completion(), logger)

	checks := map[string]healthuc.Checker{"embedding": baseEmbedder}
	if completionHealth != nil {
		checks["completion"] = completionHealth
	}
	healthSvc := healthuc.New(store, checks, healthCheckTimeout)

	logger.Info("Services wired",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("completion_driver", cfg.Completion.Driver),
		zap.String("rerank_driver", cfg.Rerank.Driver),
		zap.String("fusion", cfg.Search.Fusion),
	)

	return &app{
		cfg:    cfg,
		store:  store,
		search: searchSvc,
		answer: answerSvc,
		health: healthSvc,
		logger: logger,
	}, nil
}

// buildEmbedder wraps the provider as instruction -> instrumented -> cached -> provider.
func buildEmbedder(
	base domain.Embedder, store db.Cache, cfg config.EmbeddingConfig, logger *zap.Logger,
) (domain.Embedder, error) {
	embedder := base
	if cfg.Cache.Enabled {
		cached, err := embcache.New(base, store, embcache.Options{
			KeyPrefix:  "semsearch:emb_cache:",
			Model:      cfg.Model,
			TTL:        time.Duration(cfg.Cache.TTLHours) * time.Hour,
			LocalSize:  cfg.Cache.LocalSize,
			Dimensions: cfg.Dimensions,
		}, metrics.EmbeddingCacheTotal, logger)
		if err != nil {
			return nil, err
		}
		embedder = cached
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Outermost, so the instruction is part of the cache key.
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction), nil
	}
	return embedder, nil
}

// buildCompleter returns the rate-limited completer and, when the driver supports it, its health checker.
func buildCompleter(cfg config.CompletionConfig, logger *zap.Logger) (domain.Completer, healthuc.Checker, error) {
	var (
		base   domain.Completer
		health healthuc.Checker
	)
	switch cfg.Driver {
	case "ollama":
		c, err := ollamaT.NewCompleter(&ollamaT.Config{
			ServerURL: cfg.BaseURL,
			Model:     cfg.Model,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		base = c
	default:
		c := openaiT.NewCompleter(&openaiT.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		})
		base, health = c, c
	}

	return completionuc.NewRateLimited(base, completionuc.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Backoff:           time.Duration(cfg.RateLimit.BackoffSec) * time.Second,
	}, logger), health, nil
}

// buildRanker returns nil when reranking is disabled.
func buildRanker(cfg config.RerankConfig, completer domain.Completer, logger *zap.Logger) domain.Ranker {
	switch cfg.Driver {
	case "http":
		return rerankT.NewClient(&rerankT.Config{
			URL:      cfg.URL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		})
	case "llm":
		return rerankuc.NewLLMRanker(completer)
	default:
		return nil
	}
}

func fusionFromConfig(cfg config.SearchConfig) db.Fusion {
	f := db.DefaultFusion()
	if cfg.Fusion != "" {
		f.Combination = db.Combination(cfg.Fusion)
	}
	return f
}
