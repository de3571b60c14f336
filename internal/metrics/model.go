// Package metrics defines the service's Prometheus metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model provider metrics, shared by the embedding and completion transports.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docq",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docq",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docq",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docq",
			Name:      "completion_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docq",
			Name:      "completion_request_duration_seconds",
			Help:      "Chat completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docq",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"model", "type"},
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers the provider metrics. Must be called once
// from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(CompletionRequestsTotal)
	prometheus.MustRegister(CompletionRequestDuration)
	prometheus.MustRegister(CompletionTokensTotal)
	modelMetricsRegistered = true
}
