package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation latency and result counters
// through a prometheus registry, for deployments that scrape instead of
// polling expvar.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the service collectors on the
// supplied registerer. A nil registerer falls back to the default one.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "triggercore",
		Name:      "operation_duration_seconds",
		Help:      "Latency of service operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "entity"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triggercore",
		Name:      "operation_results_total",
		Help:      "Service operation outcomes by entity and status.",
	}, []string{"operation", "entity", "status"})
	for _, c := range []prometheus.Collector{durations, results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &PrometheusMetricsRecorder{durations: durations, results: results}, nil
}

// Observe records a service operation outcome under the entity it acted on.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, entity EntityType, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation, string(entity)).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, string(entity), status).Inc()
}
