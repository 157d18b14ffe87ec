package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search stages used as the "stage" label.
const (
	StageExpansion = "expansion"
	StageEmbedding = "embedding"
	StageStore     = "store"
	StageRerank    = "rerank"
)

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "search_requests_total",
			Help:      "Search requests by variant, mode and outcome",
		},
		[]string{"variant", "mode", "outcome"}, // outcome: ok / empty / degraded
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	SearchDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semsearch",
			Name:      "search_degradations_total",
			Help:      "Pipeline stages that failed and degraded the result",
		},
		[]string{"stage"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semsearch",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
		},
		[]string{"variant"},
	)
)

var searchOnce sync.Once

// RegisterSearchMetrics registers search pipeline metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	searchOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchStageDuration)
		prometheus.MustRegister(SearchDegradationsTotal)
		prometheus.MustRegister(SearchResults)
	})
}
