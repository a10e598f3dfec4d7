// Package order implements the trigger handler for order records: status
// defaulting on insert, immutability guards on update, and a lock that
// keeps finalized orders out of the recycle bin.
package order

import (
	"context"
	"fmt"

	"triggercore/pkg/trigger"
)

// Entity is the entity type this handler serves.
const Entity trigger.EntityType = "order"

// Record field names used by the handler.
const (
	FieldStatus = "status"
	FieldNumber = "number"
	FieldTotal  = "total"
)

// Order statuses.
const (
	StatusPending = "pending"
	StatusLocked  = "locked"
)

// Handler reacts to order mutations.
type Handler struct {
	trigger.Base
}

// New constructs a handler for one delivery. The context must carry order
// records.
func New(tc trigger.Context, sw trigger.Switches) (trigger.Handler, error) {
	if err := tc.Narrow(Entity); err != nil {
		return nil, err
	}
	return &Handler{Base: trigger.NewBase(tc, sw)}, nil
}

// Register binds the handler factory into the registry.
func Register(registry *trigger.Registry) error {
	return registry.Bind(Entity, New)
}

// Active honors the global kill-switch and the order-specific one.
func (h *Handler) Active(ctx context.Context) bool {
	return h.Base.Active(ctx) && trigger.Enabled(ctx, h.Switches, string(Entity))
}

// BeforeInsert defaults the status and rejects negative totals.
func (h *Handler) BeforeInsert(context.Context) error {
	for _, r := range h.Context.New {
		if r.Fields == nil {
			r.Fields = make(map[string]any)
		}
		if status, _ := r.Fields[FieldStatus].(string); status == "" {
			r.Fields[FieldStatus] = StatusPending
		}
		if total, ok := r.Fields[FieldTotal].(float64); ok && total < 0 {
			return fmt.Errorf("order %s: negative total %v", r.ID, total)
		}
	}
	return nil
}

// BeforeUpdate rejects writes to locked orders and keeps the order number
// immutable once assigned.
func (h *Handler) BeforeUpdate(context.Context) error {
	for _, r := range h.Context.New {
		old, ok := h.Context.OldByID[r.ID]
		if !ok {
			continue
		}
		if status, _ := old.Fields[FieldStatus].(string); status == StatusLocked {
			return fmt.Errorf("order %s is locked", r.ID)
		}
		oldNumber, _ := old.Fields[FieldNumber].(string)
		newNumber, _ := r.Fields[FieldNumber].(string)
		if oldNumber != "" && newNumber != oldNumber {
			return fmt.Errorf("order %s: number is immutable", r.ID)
		}
	}
	return nil
}

// BeforeDelete keeps locked orders out of the recycle bin.
func (h *Handler) BeforeDelete(context.Context) error {
	for _, r := range h.Context.Old {
		if status, _ := r.Fields[FieldStatus].(string); status == StatusLocked {
			return fmt.Errorf("order %s is locked", r.ID)
		}
	}
	return nil
}
