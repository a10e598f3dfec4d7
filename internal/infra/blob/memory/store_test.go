package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"triggercore/internal/blob/core"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	info, err := store.Put(ctx, "audit/2026/batch-1.json", strings.NewReader(`{"n":1}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"entity": "order"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "audit/2026/batch-1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"n":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["entity"] != "order" {
		t.Fatalf("unexpected metadata %+v", got.Metadata)
	}
}

func TestStorePutRejectsExistingKey(t *testing.T) {
	ctx := context.Background()
	store := New()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestStoreListPrefixAndDelete(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, key := range []string{"audit/a.json", "audit/b.json", "other/c.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "audit/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "audit/a.json" || infos[1].Key != "audit/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}

	removed, err := store.Delete(ctx, "audit/a.json")
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	if removed, _ := store.Delete(ctx, "audit/a.json"); removed {
		t.Fatalf("second delete should report missing")
	}
	if _, err := store.Head(ctx, "audit/a.json"); err == nil {
		t.Fatalf("expected Head to fail after delete")
	}
}
