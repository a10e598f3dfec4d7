package trigger

import (
	"context"
	"fmt"
)

// Store is the persistence surface the delivery pipeline runs against.
// Each mutation method is one event delivery: implementations dispatch the
// before phase over the pending records, commit, and dispatch the after
// phase over the persisted state, rolling back when either phase fails.
// Implementations also serve as the kill-switch lookup for handlers.
type Store interface {
	Switches

	Insert(ctx context.Context, entity EntityType, records []Record) ([]Record, error)
	Update(ctx context.Context, entity EntityType, records []Record) ([]Record, error)
	Delete(ctx context.Context, entity EntityType, ids []string) ([]Record, error)
	Undelete(ctx context.Context, entity EntityType, ids []string) ([]Record, error)

	Get(entity EntityType, id string) (Record, bool)
	List(entity EntityType) []Record
	ListDeleted(entity EntityType) []Record

	SetSwitch(ctx context.Context, sw Switch) (Switch, error)
	DeleteSwitch(ctx context.Context, name string) (bool, error)
	ListSwitches() []Switch
}

// NotFoundError is returned when a mutation references a record that does
// not exist in the targeted state (live records for update/delete, the
// recycle bin for undelete).
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
