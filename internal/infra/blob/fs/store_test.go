package fs

import (
	"context"
	"io"
	"strings"
	"testing"

	"triggercore/internal/blob/core"
)

func TestStoreRoundTripWithSidecar(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	info, err := store.Put(ctx, "audit/2026/batch-1.json", strings.NewReader(`{"n":1}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"entity": "order"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.ETag == "" {
		t.Fatalf("expected sha256 etag")
	}

	head, err := store.Head(ctx, "audit/2026/batch-1.json")
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.ContentType != "application/json" || head.Metadata["entity"] != "order" || head.Size != 7 {
		t.Fatalf("unexpected head: %+v", head)
	}

	_, rc, err := store.Get(ctx, "audit/2026/batch-1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"n":1}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestStorePutRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestStoreRejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"", "/abs", "../escape", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestStoreListSkipsSidecarsAndDeletes(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{"audit/a.json", "audit/b.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "audit/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	removed, err := store.Delete(ctx, "audit/a.json")
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	infos, err = store.List(ctx, "")
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(infos) != 1 || infos[0].Key != "audit/b.json" {
		t.Fatalf("unexpected listing after delete: %+v", infos)
	}
}
