// Package trigger defines the dispatch core for platform-managed
// data-mutation events: the event context snapshot, the handler contract
// with no-op defaults, the kill-switch capability, and the dispatcher that
// routes one event to exactly one handler callback.
package trigger

import "time"

// EntityType identifies the type of business-object record an event concerns.
type EntityType string

// Operation is the kind of mutation being applied to a batch of records.
type Operation string

// Supported mutation operations.
const (
	// OpInsert indicates new records are being created.
	OpInsert Operation = "insert"
	// OpUpdate indicates existing records are being modified.
	OpUpdate Operation = "update"
	// OpDelete indicates records are being removed.
	OpDelete Operation = "delete"
	// OpUndelete indicates previously deleted records are being restored.
	// Undelete has no before phase.
	OpUndelete Operation = "undelete"
)

// Phase distinguishes pre-persistence dispatch, where pending records may be
// mutated in place, from post-persistence dispatch over durable state.
type Phase string

// Event phases.
const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// Record is a generic business-object record carried by an event context.
type Record struct {
	ID        string         `json:"id"`
	Type      EntityType     `json:"type"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the record. Field values are copied at the
// top level only; nested mutable values are shared.
func (r Record) Clone() Record {
	cp := r
	if r.Fields != nil {
		cp.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			cp.Fields[k] = v
		}
	}
	return cp
}

// CloneAll clones a record slice into fresh pointer values.
func CloneAll(records []*Record) []*Record {
	if records == nil {
		return nil
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		cp := r.Clone()
		out = append(out, &cp)
	}
	return out
}
