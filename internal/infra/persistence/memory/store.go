// Package memory provides the in-memory transactional record store that
// anchors the delivery pipeline: every mutation batch is one trigger event,
// dispatched before and after commit through the bound handler registry.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"triggercore/pkg/trigger"
)

// Compile-time contract assertion.
var _ trigger.Store = (*Store)(nil)

type state struct {
	records  map[trigger.EntityType]map[string]trigger.Record
	deleted  map[trigger.EntityType]map[string]trigger.Record
	switches map[string]trigger.Switch
}

func newState() state {
	return state{
		records:  make(map[trigger.EntityType]map[string]trigger.Record),
		deleted:  make(map[trigger.EntityType]map[string]trigger.Record),
		switches: make(map[string]trigger.Switch),
	}
}

func cloneBucket(bucket map[string]trigger.Record) map[string]trigger.Record {
	out := make(map[string]trigger.Record, len(bucket))
	for id, r := range bucket {
		out[id] = r.Clone()
	}
	return out
}

func (s state) clone() state {
	cloned := newState()
	for entity, bucket := range s.records {
		cloned.records[entity] = cloneBucket(bucket)
	}
	for entity, bucket := range s.deleted {
		cloned.deleted[entity] = cloneBucket(bucket)
	}
	for name, sw := range s.switches {
		cloned.switches[name] = sw
	}
	return cloned
}

func (s state) live(entity trigger.EntityType) map[string]trigger.Record {
	bucket, ok := s.records[entity]
	if !ok {
		bucket = make(map[string]trigger.Record)
		s.records[entity] = bucket
	}
	return bucket
}

func (s state) bin(entity trigger.EntityType) map[string]trigger.Record {
	bucket, ok := s.deleted[entity]
	if !ok {
		bucket = make(map[string]trigger.Record)
		s.deleted[entity] = bucket
	}
	return bucket
}

// Store is an in-memory record store with a recycle bin and kill-switch
// bucket. Mutations run against a cloned state that replaces the committed
// state only when both dispatch phases succeed.
type Store struct {
	mu       sync.RWMutex
	state    state
	registry *trigger.Registry
	nowFn    func() time.Time
}

// NewStore constructs a store delivering events through the given registry.
func NewStore(registry *trigger.Registry) *Store {
	if registry == nil {
		registry = trigger.NewRegistry()
	}
	return &Store{
		state:    newState(),
		registry: registry,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Registry returns the handler registry bound to the store.
func (s *Store) Registry() *trigger.Registry { return s.registry }

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Insert persists a batch of new records, dispatching before-insert over
// the live pending records and after-insert over the persisted state.
func (s *Store) Insert(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	bucket := work.live(entity)
	now := s.nowFn()

	pending := make([]*trigger.Record, 0, len(records))
	for _, r := range records {
		cp := r.Clone()
		if cp.Type != "" && cp.Type != entity {
			return nil, &trigger.TypeMismatchError{Want: entity, Got: cp.Type, RecordID: cp.ID}
		}
		cp.Type = entity
		if cp.ID == "" {
			cp.ID = s.newID()
		}
		if _, exists := bucket[cp.ID]; exists {
			return nil, fmt.Errorf("%s %q already exists", entity, cp.ID)
		}
		cp.CreatedAt = now
		cp.UpdatedAt = now
		pending = append(pending, &cp)
	}

	// Before phase: handlers mutate pending records in place and the
	// mutated values are what gets persisted.
	tc := trigger.NewContext(entity, trigger.OpInsert, trigger.PhaseBefore, pending, nil)
	if err := s.registry.Deliver(ctx, tc, stateSwitches(work)); err != nil {
		return nil, err
	}

	persisted := make([]trigger.Record, 0, len(pending))
	for _, p := range pending {
		bucket[p.ID] = p.Clone()
		persisted = append(persisted, p.Clone())
	}

	// After phase runs over clones: post-persistence mutation must not
	// leak into committed state.
	after := trigger.NewContext(entity, trigger.OpInsert, trigger.PhaseAfter, refs(persisted), nil)
	if err := s.registry.Deliver(ctx, after, stateSwitches(work)); err != nil {
		return nil, err
	}

	s.state = work
	return persisted, nil
}

// Update persists a batch of record modifications. Records are matched to
// existing state by ID; unknown IDs fail the whole batch.
func (s *Store) Update(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	bucket := work.live(entity)
	now := s.nowFn()

	pending := make([]*trigger.Record, 0, len(records))
	old := make([]trigger.Record, 0, len(records))
	for _, r := range records {
		current, ok := bucket[r.ID]
		if !ok {
			return nil, trigger.NotFoundError{Entity: entity, ID: r.ID}
		}
		if r.Type != "" && r.Type != entity {
			return nil, &trigger.TypeMismatchError{Want: entity, Got: r.Type, RecordID: r.ID}
		}
		old = append(old, current.Clone())
		cp := r.Clone()
		cp.Type = entity
		cp.CreatedAt = current.CreatedAt
		cp.UpdatedAt = now
		pending = append(pending, &cp)
	}

	// Old records are snapshots: each phase dispatches over its own clones
	// so handler writes to the old view cannot cross phases.
	tc := trigger.NewContext(entity, trigger.OpUpdate, trigger.PhaseBefore, pending, refs(cloneSlice(old)))
	if err := s.registry.Deliver(ctx, tc, stateSwitches(work)); err != nil {
		return nil, err
	}

	persisted := make([]trigger.Record, 0, len(pending))
	for _, p := range pending {
		bucket[p.ID] = p.Clone()
		persisted = append(persisted, p.Clone())
	}

	after := trigger.NewContext(entity, trigger.OpUpdate, trigger.PhaseAfter, refs(persisted), refs(cloneSlice(old)))
	if err := s.registry.Deliver(ctx, after, stateSwitches(work)); err != nil {
		return nil, err
	}

	s.state = work
	return persisted, nil
}

// Delete moves records into the recycle bin, dispatching before-delete and
// after-delete with the removed records as the old sequence.
func (s *Store) Delete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	bucket := work.live(entity)
	bin := work.bin(entity)

	old := make([]trigger.Record, 0, len(ids))
	for _, id := range ids {
		current, ok := bucket[id]
		if !ok {
			return nil, trigger.NotFoundError{Entity: entity, ID: id}
		}
		old = append(old, current.Clone())
	}

	// Old records are snapshots: each phase dispatches over its own clones
	// so handler writes cannot leak into the recycle bin.
	tc := trigger.NewContext(entity, trigger.OpDelete, trigger.PhaseBefore, nil, refs(cloneSlice(old)))
	if err := s.registry.Deliver(ctx, tc, stateSwitches(work)); err != nil {
		return nil, err
	}

	for _, r := range old {
		delete(bucket, r.ID)
		bin[r.ID] = r.Clone()
	}

	after := trigger.NewContext(entity, trigger.OpDelete, trigger.PhaseAfter, nil, refs(cloneSlice(old)))
	if err := s.registry.Deliver(ctx, after, stateSwitches(work)); err != nil {
		return nil, err
	}

	s.state = work
	return old, nil
}

// Undelete restores records from the recycle bin. Undelete has no before
// phase; only after-undelete is dispatched.
func (s *Store) Undelete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	bucket := work.live(entity)
	bin := work.bin(entity)
	now := s.nowFn()

	restored := make([]trigger.Record, 0, len(ids))
	for _, id := range ids {
		current, ok := bin[id]
		if !ok {
			return nil, trigger.NotFoundError{Entity: entity, ID: id}
		}
		if _, exists := bucket[id]; exists {
			return nil, fmt.Errorf("%s %q already exists", entity, id)
		}
		cp := current.Clone()
		cp.UpdatedAt = now
		delete(bin, id)
		bucket[id] = cp.Clone()
		restored = append(restored, cp)
	}

	after := trigger.NewContext(entity, trigger.OpUndelete, trigger.PhaseAfter, refs(restored), nil)
	if err := s.registry.Deliver(ctx, after, stateSwitches(work)); err != nil {
		return nil, err
	}

	s.state = work
	return restored, nil
}

// Get retrieves a live record by ID from committed state.
func (s *Store) Get(entity trigger.EntityType, id string) (trigger.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.records[entity][id]
	if !ok {
		return trigger.Record{}, false
	}
	return r.Clone(), true
}

// List returns all live records for an entity, ordered by ID.
func (s *Store) List(entity trigger.EntityType) []trigger.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRecords(s.state.records[entity])
}

// ListDeleted returns the recycle bin contents for an entity, ordered by ID.
func (s *Store) ListDeleted(entity trigger.EntityType) []trigger.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRecords(s.state.deleted[entity])
}

// Lookup implements trigger.Switches against committed switch records.
func (s *Store) Lookup(_ context.Context, name string) (trigger.Switch, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sw, ok := s.state.switches[name]
	return sw, ok, nil
}

// SetSwitch upserts a kill-switch record.
func (s *Store) SetSwitch(_ context.Context, sw trigger.Switch) (trigger.Switch, error) {
	if sw.Name == "" {
		return trigger.Switch{}, fmt.Errorf("switch name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sw.UpdatedAt = s.nowFn()
	s.state.switches[sw.Name] = sw
	return sw, nil
}

// DeleteSwitch removes a kill-switch record, reporting whether it existed.
func (s *Store) DeleteSwitch(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.switches[name]
	delete(s.state.switches, name)
	return ok, nil
}

// ListSwitches returns all kill-switch records, ordered by name.
func (s *Store) ListSwitches() []trigger.Switch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]trigger.Switch, 0, len(s.state.switches))
	for _, sw := range s.state.switches {
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// stateSwitches exposes the working state's switch bucket as a lookup so
// dispatch within an operation observes switch state consistently.
func stateSwitches(st state) trigger.Switches {
	return trigger.SwitchesFunc(func(_ context.Context, name string) (trigger.Switch, bool, error) {
		sw, ok := st.switches[name]
		return sw, ok, nil
	})
}

func cloneSlice(records []trigger.Record) []trigger.Record {
	out := make([]trigger.Record, 0, len(records))
	for _, r := range records {
		out = append(out, r.Clone())
	}
	return out
}

func refs(records []trigger.Record) []*trigger.Record {
	if len(records) == 0 {
		return nil
	}
	out := make([]*trigger.Record, 0, len(records))
	for i := range records {
		out = append(out, &records[i])
	}
	return out
}

func sortedRecords(bucket map[string]trigger.Record) []trigger.Record {
	out := make([]trigger.Record, 0, len(bucket))
	for _, r := range bucket {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
