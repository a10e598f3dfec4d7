package integration

import (
	"context"
	"path/filepath"
	"testing"

	"triggercore/handlers/order"
	"triggercore/internal/archive"
	"triggercore/internal/blob"
	"triggercore/internal/config"
	"triggercore/internal/core"
	"triggercore/internal/infra/persistence/sqlite"
	"triggercore/pkg/trigger"
)

// End-to-end pass over the whole stack: config-driven store selection,
// trigger delivery through the order handler, kill-switch gating, audit
// archiving to the filesystem artifact store, and durable state reload.
func TestFullStackSmoke(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "state.db")
	t.Setenv("TRIGGERCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("TRIGGERCORE_SQLITE_PATH", dbPath)
	t.Setenv("TRIGGERCORE_BLOB_DRIVER", "fs")
	t.Setenv("TRIGGERCORE_BLOB_FS_ROOT", filepath.Join(t.TempDir(), "artifacts"))

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	registry := trigger.NewRegistry()
	if err := order.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}
	store, err := core.OpenPersistentStore(ctx, cfg, registry)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	audit := core.NewMemoryAuditRecorder()
	svc := core.NewService(store, core.WithAuditRecorder(audit))

	created, err := svc.InsertRecords(ctx, order.Entity, []core.Record{
		{Fields: map[string]any{order.FieldNumber: "ORD-1", order.FieldTotal: 12.5}},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created[0].Fields[order.FieldStatus] != order.StatusPending {
		t.Fatalf("expected handler to default status, got %+v", created[0].Fields)
	}

	if _, err := svc.SetKillSwitch(ctx, string(order.Entity), true); err != nil {
		t.Fatalf("set switch: %v", err)
	}
	muted, err := svc.InsertRecords(ctx, order.Entity, []core.Record{
		{Fields: map[string]any{order.FieldNumber: "ORD-2"}},
	})
	if err != nil {
		t.Fatalf("insert while disabled: %v", err)
	}
	if _, ok := muted[0].Fields[order.FieldStatus]; ok {
		t.Fatalf("disabled handler must not run, got %+v", muted[0].Fields)
	}
	if _, err := svc.ClearKillSwitch(ctx, string(order.Entity)); err != nil {
		t.Fatalf("clear switch: %v", err)
	}

	if _, err := svc.DeleteRecords(ctx, order.Entity, []string{muted[0].ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.UndeleteRecords(ctx, order.Entity, []string{muted[0].ID}); err != nil {
		t.Fatalf("undelete: %v", err)
	}

	artifacts, err := blob.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open artifacts: %v", err)
	}
	archiver := archive.New(artifacts)
	info, err := archiver.Flush(ctx, audit)
	if err != nil {
		t.Fatalf("flush audit: %v", err)
	}
	doc, err := archiver.Load(ctx, info.Key)
	if err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if doc.Count != 4 {
		t.Fatalf("expected 4 audited operations, got %+v", doc)
	}

	reopened, err := sqlite.NewStore(dbPath, registry)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if live := reopened.List(order.Entity); len(live) != 2 {
		t.Fatalf("expected 2 live records after reopen, got %+v", live)
	}
}
