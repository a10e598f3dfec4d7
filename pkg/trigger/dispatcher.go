package trigger

import (
	"context"
	"errors"
)

// ErrNoHandler is returned when Dispatch is called on a dispatcher
// constructed without a handler.
var ErrNoHandler = errors.New("trigger: dispatcher has no bound handler")

// Dispatcher routes one classified mutation event to at most one handler
// callback. The context and handler binding is fixed at construction and
// immutable thereafter; a dispatcher holds no other state and is intended
// to be constructed and discarded within a single event delivery.
type Dispatcher struct {
	tc      Context
	handler Handler
}

// NewDispatcher binds an event context to exactly one handler.
func NewDispatcher(tc Context, h Handler) Dispatcher {
	return Dispatcher{tc: tc, handler: h}
}

// Dispatch invokes the single callback matching the context's flags, or
// none. The handler's activation predicate gates all routing: an inactive
// handler dispatches nothing and returns nil. Flag combinations outside
// the routing table (no phase, both phases, no operation, several
// operations, or before+undelete) invoke no callback. A callback error is
// returned to the caller unmodified; the dispatcher performs no
// containment or retry, since a before-phase failure must be able to abort
// the pending persistence operation.
func (d Dispatcher) Dispatch(ctx context.Context) error {
	if d.handler == nil {
		return ErrNoHandler
	}
	if !d.handler.Active(ctx) {
		return nil
	}
	hook := d.route()
	if hook == nil {
		return nil
	}
	return hook(ctx)
}

// route is a pure function of the seven flags. It performs no I/O and does
// not inspect record contents.
func (d Dispatcher) route() func(context.Context) error {
	tc := d.tc
	if tc.Before == tc.After {
		return nil
	}
	if !exactlyOne(tc.Insert, tc.Update, tc.Delete, tc.Undelete) {
		return nil
	}
	switch {
	case tc.Before && tc.Insert:
		return d.handler.BeforeInsert
	case tc.Before && tc.Update:
		return d.handler.BeforeUpdate
	case tc.Before && tc.Delete:
		return d.handler.BeforeDelete
	case tc.After && tc.Insert:
		return d.handler.AfterInsert
	case tc.After && tc.Update:
		return d.handler.AfterUpdate
	case tc.After && tc.Delete:
		return d.handler.AfterDelete
	case tc.After && tc.Undelete:
		return d.handler.AfterUndelete
	}
	// before+undelete: the source event model has no such phase.
	return nil
}

func exactlyOne(flags ...bool) bool {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n == 1
}
