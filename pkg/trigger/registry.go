package trigger

import (
	"context"
	"fmt"
	"sort"
)

// HandlerFactory constructs a handler bound to one event's record data and
// a kill-switch source. Factories narrow the generic context to their
// entity's expected shape and fail fast on mismatch.
type HandlerFactory func(tc Context, sw Switches) (Handler, error)

// Registry binds at most one handler factory per entity type. It replaces
// a proliferation of per-rule event hooks with one dispatcher and one
// handler per entity. Bindings are established at startup; the registry is
// not safe for concurrent mutation.
type Registry struct {
	factories map[EntityType]HandlerFactory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[EntityType]HandlerFactory)}
}

// Bind associates a factory with an entity type. Binding a second factory
// for the same entity is an error: each entity has exactly one handler.
func (r *Registry) Bind(entity EntityType, factory HandlerFactory) error {
	if entity == "" {
		return fmt.Errorf("trigger: bind requires an entity type")
	}
	if factory == nil {
		return fmt.Errorf("trigger: bind %s requires a factory", entity)
	}
	if _, ok := r.factories[entity]; ok {
		return fmt.Errorf("trigger: handler already bound for %s", entity)
	}
	r.factories[entity] = factory
	return nil
}

// Factory returns the factory bound to an entity type, if any.
func (r *Registry) Factory(entity EntityType) (HandlerFactory, bool) {
	f, ok := r.factories[entity]
	return f, ok
}

// Entities returns the bound entity types in stable order.
func (r *Registry) Entities() []EntityType {
	out := make([]EntityType, 0, len(r.factories))
	for entity := range r.factories {
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Deliver routes one event: it constructs the handler for the context's
// entity, binds a dispatcher, and dispatches exactly once. Entities with
// no bound factory deliver nothing. A handler construction failure is
// surfaced immediately; callback errors propagate from Dispatch unmodified.
func (r *Registry) Deliver(ctx context.Context, tc Context, sw Switches) error {
	factory, ok := r.factories[tc.Entity]
	if !ok {
		return nil
	}
	h, err := factory(tc, sw)
	if err != nil {
		return fmt.Errorf("construct %s handler: %w", tc.Entity, err)
	}
	return NewDispatcher(tc, h).Dispatch(ctx)
}
