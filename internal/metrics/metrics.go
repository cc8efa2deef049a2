// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chargeyard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargeyard_db_slow_query_total",
			Help: "Database queries slower than the configured threshold",
		},
		[]string{"table"},
	)

	WriteCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargeyard_writes_total",
			Help: "Mutations by entity and outcome",
		},
		[]string{"entity", "op", "outcome"}, // outcome: ok, denied, failed
	)

	GanttRenderCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chargeyard_gantt_render_total",
			Help: "Gantt charts rendered by format",
		},
		[]string{"format"},
	)
)

// RecordHTTPRequestDuration observes one request.
func RecordHTTPRequestDuration(method, path, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// IncrementSlowQuery counts one slow query against table.
func IncrementSlowQuery(table string) {
	SlowQueryCount.WithLabelValues(table).Inc()
}

// IncrementWrite counts one create, update or delete.
func IncrementWrite(entity, op, outcome string) {
	WriteCount.WithLabelValues(entity, op, outcome).Inc()
}

// IncrementGanttRender counts one rendered chart.
func IncrementGanttRender(format string) {
	GanttRenderCount.WithLabelValues(format).Inc()
}
