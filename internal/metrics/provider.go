package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider kinds used as the "kind" label.
const (
	KindEmbedding  = "embedding"
	KindCompletion = "completion"
	KindRerank     = "rerank"
)

// Outbound provider Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "provider_requests_total",
			Help:      "Total number of outbound provider requests",
		},
		[]string{"kind", "provider", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "provider", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "provider_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"kind", "provider", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "provider_errors_total",
			Help:      "Total provider errors",
		},
		[]string{"kind", "provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"tier", "result"}, // "local"/"shared", "hit"/"miss"
	)
)

var providerOnce sync.Once

// RegisterProviderMetrics registers provider and embedding cache metrics. Safe to call more than once.
func RegisterProviderMetrics() {
	providerOnce.Do(func() {
		prometheus.MustRegister(ProviderRequestsTotal)
		prometheus.MustRegister(ProviderRequestDuration)
		prometheus.MustRegister(ProviderTokensTotal)
		prometheus.MustRegister(ProviderErrorsTotal)
		prometheus.MustRegister(EmbeddingCacheTotal)
	})
}
