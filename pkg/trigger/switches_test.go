package trigger

import (
	"context"
	"errors"
	"testing"
)

func fixedSwitches(switches map[string]Switch) SwitchesFunc {
	return func(_ context.Context, name string) (Switch, bool, error) {
		s, ok := switches[name]
		return s, ok, nil
	}
}

func TestEnabledFailsOpen(t *testing.T) {
	ctx := context.Background()
	if !Enabled(ctx, nil, SwitchAll) {
		t.Fatalf("nil source must fail open")
	}
	if !Enabled(ctx, fixedSwitches(nil), "widget") {
		t.Fatalf("missing record must fail open")
	}
	failing := SwitchesFunc(func(context.Context, string) (Switch, bool, error) {
		return Switch{}, false, errors.New("store unavailable")
	})
	if !Enabled(ctx, failing, "widget") {
		t.Fatalf("lookup failure must fail open")
	}
}

func TestEnabledHonorsDisabledRecord(t *testing.T) {
	src := fixedSwitches(map[string]Switch{
		"widget": {Name: "widget", Disabled: true},
		"gadget": {Name: "gadget", Disabled: false},
	})
	ctx := context.Background()
	if Enabled(ctx, src, "widget") {
		t.Fatalf("disabled record must report not enabled")
	}
	if !Enabled(ctx, src, "gadget") {
		t.Fatalf("enabled record must report enabled")
	}
}

func TestBaseActiveUsesGlobalSwitch(t *testing.T) {
	ctx := context.Background()
	b := NewBase(Context{}, fixedSwitches(map[string]Switch{
		SwitchAll: {Name: SwitchAll, Disabled: true},
	}))
	if b.Active(ctx) {
		t.Fatalf("global kill-switch must deactivate base handler")
	}
	open := NewBase(Context{}, fixedSwitches(nil))
	if !open.Active(ctx) {
		t.Fatalf("absent global switch must leave handler active")
	}
}

func TestBaseCallbacksAreNoOps(t *testing.T) {
	var b Base
	ctx := context.Background()
	hooks := []func(context.Context) error{
		b.BeforeInsert, b.BeforeUpdate, b.BeforeDelete,
		b.AfterInsert, b.AfterUpdate, b.AfterDelete, b.AfterUndelete,
	}
	for i, hook := range hooks {
		if err := hook(ctx); err != nil {
			t.Fatalf("hook %d returned %v", i, err)
		}
	}
}
