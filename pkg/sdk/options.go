package semsearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	index     string
	keyPrefix string
	fusion    string

	embedder  Embedder
	completer Completer
	ranker    Ranker

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the Redis 8 instance (or cluster seed addresses) holding the index.
func WithRedis(password string, addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	})
}

// WithIndex overrides the index name and the document key prefix.
// Defaults: semsearch:docs:idx and semsearch:doc:.
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
		c.keyPrefix = keyPrefix
	})
}

// WithFusion selects the hybrid score combination: arithmetic_mean (default),
// geometric_mean, harmonic_mean or rrf.
func WithFusion(combination string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fusion = combination
	})
}

// WithEmbedder sets the text embedding provider.
// Required for advanced and pro searches; simple search works without it.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the text completion provider used for query expansion and answers.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithRanker enables reranking with a cross-document relevance model.
func WithRanker(r Ranker) Option {
	return optionFunc(func(c *clientConfig) {
		c.ranker = r
	})
}

// WithVectorDimensions sets the embedding dimension of the index. Defaults to 256.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithLogger enables structured logging for client operations. Nil disables it (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
