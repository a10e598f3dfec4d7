package trigger

import "fmt"

// Context is an immutable snapshot of one mutation event: the entity type,
// the ordered new and old record states, identifier lookups for both, the
// record count, and the classification flags the dispatcher routes on.
//
// The new-record sequence is live during the before phase: handlers may
// write fields back into its records to influence the pending persistence
// operation. Old records are always snapshots.
type Context struct {
	Entity EntityType

	New     []*Record
	Old     []*Record
	NewByID map[string]*Record
	OldByID map[string]*Record
	Size    int

	Executing bool
	Before    bool
	After     bool
	Insert    bool
	Update    bool
	Delete    bool
	Undelete  bool
}

// NewContext builds an event context for one delivery. Flags are derived
// from the operation and phase rather than set positionally, so a caller
// cannot transpose them. Either record sequence may be nil: inserts carry
// no old records, deletes carry no new records.
func NewContext(entity EntityType, op Operation, phase Phase, newRecords, oldRecords []*Record) Context {
	tc := Context{
		Entity:    entity,
		New:       newRecords,
		Old:       oldRecords,
		NewByID:   byID(newRecords),
		OldByID:   byID(oldRecords),
		Executing: true,
		Before:    phase == PhaseBefore,
		After:     phase == PhaseAfter,
		Insert:    op == OpInsert,
		Update:    op == OpUpdate,
		Delete:    op == OpDelete,
		Undelete:  op == OpUndelete,
	}
	tc.Size = len(newRecords)
	if len(oldRecords) > tc.Size {
		tc.Size = len(oldRecords)
	}
	return tc
}

func byID(records []*Record) map[string]*Record {
	if len(records) == 0 {
		return nil
	}
	out := make(map[string]*Record, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			continue
		}
		out[r.ID] = r
	}
	return out
}

// Narrow verifies that every record in the context belongs to the given
// entity type. Concrete handlers call it at construction so a wrongly
// injected context fails fast instead of surfacing mid-callback.
func (c Context) Narrow(entity EntityType) error {
	if c.Entity != entity {
		return &TypeMismatchError{Want: entity, Got: c.Entity}
	}
	for _, r := range c.New {
		if r != nil && r.Type != entity {
			return &TypeMismatchError{Want: entity, Got: r.Type, RecordID: r.ID}
		}
	}
	for _, r := range c.Old {
		if r != nil && r.Type != entity {
			return &TypeMismatchError{Want: entity, Got: r.Type, RecordID: r.ID}
		}
	}
	return nil
}

// TypeMismatchError reports an event context injected into a handler for
// the wrong entity type.
type TypeMismatchError struct {
	Want     EntityType
	Got      EntityType
	RecordID string
}

func (e *TypeMismatchError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("trigger: record %s has type %s, handler expects %s", e.RecordID, e.Got, e.Want)
	}
	return fmt.Sprintf("trigger: context carries %s records, handler expects %s", e.Got, e.Want)
}
