package order

import (
	"context"
	"strings"
	"testing"

	"triggercore/internal/infra/persistence/memory"
	"triggercore/pkg/trigger"
)

func newOrderStore(t *testing.T) *memory.Store {
	t.Helper()
	registry := trigger.NewRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return memory.NewStore(registry)
}

func TestBeforeInsertDefaultsStatus(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t)

	created, err := store.Insert(ctx, Entity, []trigger.Record{
		{Fields: map[string]any{FieldNumber: "ORD-1", FieldTotal: 12.5}},
		{Fields: map[string]any{FieldNumber: "ORD-2", FieldStatus: StatusLocked}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if created[0].Fields[FieldStatus] != StatusPending {
		t.Fatalf("expected defaulted status, got %v", created[0].Fields[FieldStatus])
	}
	if created[1].Fields[FieldStatus] != StatusLocked {
		t.Fatalf("explicit status must survive, got %v", created[1].Fields[FieldStatus])
	}
}

func TestBeforeInsertRejectsNegativeTotal(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t)

	_, err := store.Insert(ctx, Entity, []trigger.Record{
		{Fields: map[string]any{FieldNumber: "ORD-1", FieldTotal: -3.0}},
	})
	if err == nil || !strings.Contains(err.Error(), "negative total") {
		t.Fatalf("expected negative total rejection, got %v", err)
	}
	if live := store.List(Entity); len(live) != 0 {
		t.Fatalf("rejected insert must not persist, got %+v", live)
	}
}

func TestBeforeUpdateGuards(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t)

	created, err := store.Insert(ctx, Entity, []trigger.Record{
		{Fields: map[string]any{FieldNumber: "ORD-1"}},
		{Fields: map[string]any{FieldNumber: "ORD-2", FieldStatus: StatusLocked}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	locked := created[1].Clone()
	locked.Fields[FieldTotal] = 10.0
	if _, err := store.Update(ctx, Entity, []trigger.Record{locked}); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected locked rejection, got %v", err)
	}

	renumbered := created[0].Clone()
	renumbered.Fields[FieldNumber] = "ORD-99"
	if _, err := store.Update(ctx, Entity, []trigger.Record{renumbered}); err == nil || !strings.Contains(err.Error(), "immutable") {
		t.Fatalf("expected immutability rejection, got %v", err)
	}

	updated := created[0].Clone()
	updated.Fields[FieldTotal] = 42.0
	out, err := store.Update(ctx, Entity, []trigger.Record{updated})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out[0].Fields[FieldTotal] != 42.0 {
		t.Fatalf("expected total updated, got %v", out[0].Fields[FieldTotal])
	}
}

func TestBeforeDeleteKeepsLockedOrders(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t)

	created, err := store.Insert(ctx, Entity, []trigger.Record{
		{Fields: map[string]any{FieldNumber: "ORD-1", FieldStatus: StatusLocked}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.Delete(ctx, Entity, []string{created[0].ID}); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected locked rejection, got %v", err)
	}
}

func TestEntityKillSwitchDisablesHandler(t *testing.T) {
	ctx := context.Background()
	store := newOrderStore(t)
	if _, err := store.SetSwitch(ctx, trigger.Switch{Name: string(Entity), Disabled: true}); err != nil {
		t.Fatalf("SetSwitch: %v", err)
	}

	created, err := store.Insert(ctx, Entity, []trigger.Record{
		{Fields: map[string]any{FieldNumber: "ORD-1"}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, ok := created[0].Fields[FieldStatus]; ok {
		t.Fatalf("disabled handler must not default status, got %+v", created[0].Fields)
	}
}

func TestNewRejectsForeignEntity(t *testing.T) {
	tc := trigger.NewContext("invoice", trigger.OpInsert, trigger.PhaseBefore, nil, nil)
	if _, err := New(tc, nil); err == nil {
		t.Fatalf("expected narrow failure for foreign entity")
	}
}
