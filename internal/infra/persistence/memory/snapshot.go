package memory

import (
	"sort"

	"triggercore/pkg/trigger"
)

// Snapshot is a full copy of store state, used by durable backends to
// persist and rehydrate the in-memory store.
type Snapshot struct {
	Records  map[trigger.EntityType][]trigger.Record `json:"records"`
	Deleted  map[trigger.EntityType][]trigger.Record `json:"deleted"`
	Switches []trigger.Switch                        `json:"switches"`
}

// ExportState captures committed state as a snapshot with stable ordering.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		Records: make(map[trigger.EntityType][]trigger.Record, len(s.state.records)),
		Deleted: make(map[trigger.EntityType][]trigger.Record, len(s.state.deleted)),
	}
	for entity, bucket := range s.state.records {
		if len(bucket) == 0 {
			continue
		}
		snapshot.Records[entity] = sortedRecords(bucket)
	}
	for entity, bucket := range s.state.deleted {
		if len(bucket) == 0 {
			continue
		}
		snapshot.Deleted[entity] = sortedRecords(bucket)
	}
	for _, sw := range s.state.switches {
		snapshot.Switches = append(snapshot.Switches, sw)
	}
	sort.Slice(snapshot.Switches, func(i, j int) bool {
		return snapshot.Switches[i].Name < snapshot.Switches[j].Name
	})
	return snapshot
}

// ImportState replaces committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newState()
	for entity, records := range snapshot.Records {
		bucket := st.live(entity)
		for _, r := range records {
			bucket[r.ID] = r.Clone()
		}
	}
	for entity, records := range snapshot.Deleted {
		bucket := st.bin(entity)
		for _, r := range records {
			bucket[r.ID] = r.Clone()
		}
	}
	for _, sw := range snapshot.Switches {
		st.switches[sw.Name] = sw
	}
	s.state = st
}
