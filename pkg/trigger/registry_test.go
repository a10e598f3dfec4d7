package trigger

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegistryBindRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	factory := func(tc Context, sw Switches) (Handler, error) {
		return NewBase(tc, sw), nil
	}
	if err := r.Bind("widget", factory); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := r.Bind("widget", factory); err == nil {
		t.Fatalf("expected duplicate bind to fail")
	}
	if err := r.Bind("", factory); err == nil {
		t.Fatalf("expected empty entity bind to fail")
	}
	if err := r.Bind("gadget", nil); err == nil {
		t.Fatalf("expected nil factory bind to fail")
	}
}

func TestRegistryDeliverUnboundEntityIsNoOp(t *testing.T) {
	r := NewRegistry()
	tc := NewContext("widget", OpInsert, PhaseBefore, nil, nil)
	if err := r.Deliver(context.Background(), tc, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}
}

func TestRegistryDeliverRoutesToBoundHandler(t *testing.T) {
	r := NewRegistry()
	handler := newCountingHandler(true)
	if err := r.Bind("widget", func(Context, Switches) (Handler, error) {
		return handler, nil
	}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	tc := NewContext("widget", OpInsert, PhaseAfter, nil, nil)
	if err := r.Deliver(context.Background(), tc, nil); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if handler.calls["after_insert"] != 1 {
		t.Fatalf("expected after_insert once, got %v", handler.calls)
	}
}

func TestRegistryDeliverSurfacesConstructionFailure(t *testing.T) {
	r := NewRegistry()
	mismatch := &TypeMismatchError{Want: "widget", Got: "gadget"}
	if err := r.Bind("widget", func(tc Context, _ Switches) (Handler, error) {
		return nil, mismatch
	}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	tc := NewContext("widget", OpInsert, PhaseBefore, nil, nil)
	err := r.Deliver(context.Background(), tc, nil)
	var got *TypeMismatchError
	if !errors.As(err, &got) {
		t.Fatalf("expected construction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "construct widget handler") {
		t.Fatalf("expected construction context in error, got %v", err)
	}
}

func TestRegistryEntitiesSorted(t *testing.T) {
	r := NewRegistry()
	for _, entity := range []EntityType{"gadget", "widget", "anvil"} {
		if err := r.Bind(entity, func(tc Context, sw Switches) (Handler, error) {
			return NewBase(tc, sw), nil
		}); err != nil {
			t.Fatalf("bind %s: %v", entity, err)
		}
	}
	got := r.Entities()
	want := []EntityType{"anvil", "gadget", "widget"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
