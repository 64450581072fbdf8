package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation and memory Prometheus metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Total number of generation requests by model kind",
		},
		[]string{"kind", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"kind", "model"},
	)

	ModelErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_errors_total",
			Help:      "Total generation failures",
		},
		[]string{"kind", "error_type"}, // "unreachable" / "generation_failed"
	)

	ChatRoutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_routes_total",
			Help:      "Chat requests by decision route",
		},
		[]string{"route"},
	)

	MemoryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Memory store operations",
		},
		[]string{"op", "status"},
	)
)

var registerModel sync.Once

// RegisterModelMetrics registers generation, chat and memory metrics. Safe to call more than once.
func RegisterModelMetrics() {
	registerModel.Do(func() {
		prometheus.MustRegister(
			ModelRequestsTotal,
			ModelRequestDuration,
			ModelErrorsTotal,
			ChatRoutesTotal,
			MemoryOperationsTotal,
		)
	})
}
