package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "insert_records", "order", true, 20*time.Millisecond)
	rec.Observe(ctx, "insert_records", "order", true, 30*time.Millisecond)
	rec.Observe(ctx, "insert_records", "invoice", false, 5*time.Millisecond)
	rec.Observe(ctx, "", "order", true, time.Second) // ignored

	snapshot := rec.Snapshot()
	stats, ok := snapshot.Operations["insert_records"]
	if !ok {
		t.Fatalf("operation missing from snapshot: %+v", snapshot.Operations)
	}
	if stats.TotalMS != 55 {
		t.Fatalf("total ms = %v", stats.TotalMS)
	}
	if stats.Success != 2 || stats.Error != 1 {
		t.Fatalf("counts = success %d error %d", stats.Success, stats.Error)
	}
	if stats.ByEntity["order"] != 2 || stats.ByEntity["invoice"] != 1 {
		t.Fatalf("entity breakdown = %v", stats.ByEntity)
	}
	if rec.Name() == "" {
		t.Fatalf("expected generated name")
	}
}

func TestExpvarSnapshotIsDetached(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()
	rec.Observe(ctx, "delete_records", "order", true, time.Millisecond)

	snapshot := rec.Snapshot()
	snapshot.Operations["delete_records"].ByEntity["order"] = 99

	if got := rec.Snapshot().Operations["delete_records"].ByEntity["order"]; got != 1 {
		t.Fatalf("snapshot mutation leaked into recorder: %d", got)
	}
}

func TestJSONTracerEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx := context.Background()

	_, span := tracer.Start(ctx, "delete_records", "order")
	span.End(nil)
	_, span = tracer.Start(ctx, "update_records", "invoice")
	span.End(errors.New("conflict"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected statuses: %+v", entries)
	}
	if entries[0].Entity != "order" || entries[1].Entity != "invoice" {
		t.Fatalf("unexpected entities: %+v", entries)
	}
	if entries[1].Error != "conflict" {
		t.Fatalf("expected error message, got %+v", entries[1])
	}
	out := buf.String()
	if !strings.Contains(out, `"operation":"delete_records"`) || !strings.Contains(out, `"entity":"invoice"`) {
		t.Fatalf("unexpected encoded output: %s", out)
	}
}
