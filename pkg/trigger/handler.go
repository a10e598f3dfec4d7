package trigger

import "context"

// Handler is the polymorphic unit of business logic for one entity type:
// an activation predicate plus one callback per phase/operation pair.
// Callbacks may have arbitrary side effects; before-phase callbacks may
// mutate the context's pending new records in place. An error returned by
// a callback propagates unmodified through Dispatch.
type Handler interface {
	Active(ctx context.Context) bool

	BeforeInsert(ctx context.Context) error
	BeforeUpdate(ctx context.Context) error
	BeforeDelete(ctx context.Context) error
	AfterInsert(ctx context.Context) error
	AfterUpdate(ctx context.Context) error
	AfterDelete(ctx context.Context) error
	AfterUndelete(ctx context.Context) error
}

// Base is the embeddable default handler: every callback is a no-op and
// Active reports true unless the global kill-switch disables all handlers.
// Concrete handlers embed Base and override only what they need; an
// entity-specific Active override must delegate to Base.Active and AND it
// with an entity-scoped Enabled check.
type Base struct {
	Context  Context
	Switches Switches
}

// NewBase binds an event context and a kill-switch source into a Base.
func NewBase(tc Context, sw Switches) Base {
	return Base{Context: tc, Switches: sw}
}

// Active reports whether handlers are globally enabled.
func (b Base) Active(ctx context.Context) bool {
	return Enabled(ctx, b.Switches, SwitchAll)
}

// BeforeInsert is a no-op.
func (b Base) BeforeInsert(context.Context) error { return nil }

// BeforeUpdate is a no-op.
func (b Base) BeforeUpdate(context.Context) error { return nil }

// BeforeDelete is a no-op.
func (b Base) BeforeDelete(context.Context) error { return nil }

// AfterInsert is a no-op.
func (b Base) AfterInsert(context.Context) error { return nil }

// AfterUpdate is a no-op.
func (b Base) AfterUpdate(context.Context) error { return nil }

// AfterDelete is a no-op.
func (b Base) AfterDelete(context.Context) error { return nil }

// AfterUndelete is a no-op.
func (b Base) AfterUndelete(context.Context) error { return nil }
