package trigger

import (
	"context"
	"time"
)

// SwitchAll is the reserved kill-switch name that disables every handler.
const SwitchAll = "all"

// Switch is an operator-controlled kill-switch record, keyed by the global
// name or an entity-type name.
type Switch struct {
	Name      string    `json:"name"`
	Disabled  bool      `json:"disabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Switches looks up kill-switch records by name. The second return reports
// whether a record exists for the name.
type Switches interface {
	Lookup(ctx context.Context, name string) (Switch, bool, error)
}

// SwitchesFunc adapts a function to the Switches interface.
type SwitchesFunc func(ctx context.Context, name string) (Switch, bool, error)

// Lookup invokes the underlying function.
func (f SwitchesFunc) Lookup(ctx context.Context, name string) (Switch, bool, error) {
	return f(ctx, name)
}

// Enabled reports whether the named switch permits handler execution.
// A nil source, a missing record, and a lookup failure all fail open:
// absence of configuration must not silently disable business rules.
func Enabled(ctx context.Context, sw Switches, name string) bool {
	if sw == nil {
		return true
	}
	s, ok, err := sw.Lookup(ctx, name)
	if err != nil || !ok {
		return true
	}
	return !s.Disabled
}
