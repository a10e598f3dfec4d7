package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "insert_records", "order", true, 12*time.Millisecond)
	rec.Observe(ctx, "insert_records", "order", false, 3*time.Millisecond)
	rec.Observe(ctx, "insert_records", "invoice", true, 7*time.Millisecond)
	rec.Observe(ctx, "", "order", true, time.Second) // ignored

	success := testutil.ToFloat64(rec.results.WithLabelValues("insert_records", "order", "success"))
	if success != 1 {
		t.Fatalf("success count = %v", success)
	}
	failure := testutil.ToFloat64(rec.results.WithLabelValues("insert_records", "order", "error"))
	if failure != 1 {
		t.Fatalf("error count = %v", failure)
	}
	other := testutil.ToFloat64(rec.results.WithLabelValues("insert_records", "invoice", "success"))
	if other != 1 {
		t.Fatalf("expected entities to count separately, got %v", other)
	}
}

func TestPrometheusMetricsRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
