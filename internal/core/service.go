package core

import (
	"context"
	"time"

	"triggercore/pkg/trigger"
)

// Service exposes the record mutation surface of a store together with
// kill-switch administration, instrumented with the configured logger,
// metrics recorder, tracer, and audit recorder.
type Service struct {
	store Store
	opts  serviceOptions
}

// NewService constructs a service backed by the supplied store.
func NewService(store Store, opts ...Option) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{store: store, opts: options}
}

// Store returns the underlying storage implementation.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) run(ctx context.Context, operation string, entity EntityType, fn func(context.Context) ([]Record, error)) ([]Record, error) {
	started := time.Now()
	var span TraceSpan
	if s.opts.tracer != nil {
		ctx, span = s.opts.tracer.Start(ctx, operation, entity)
	}
	out, err := fn(ctx)
	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.opts.metrics != nil {
		s.opts.metrics.Observe(ctx, operation, entity, err == nil, duration)
	}
	if err != nil {
		s.opts.logger.Error(operation+" failed", "entity", entity, "error", err)
		s.recordAudit(ctx, operation, entity, nil, err, duration)
		return nil, err
	}
	s.opts.logger.Debug(operation+" ok", "entity", entity, "count", len(out))
	s.recordAudit(ctx, operation, entity, out, nil, duration)
	return out, nil
}

func (s *Service) recordAudit(ctx context.Context, operation string, entity EntityType, records []Record, err error, duration time.Duration) {
	if s.opts.audit == nil {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    entity,
		Status:    AuditStatusSuccess,
		Count:     len(records),
		Duration:  duration,
		Timestamp: s.opts.clock.Now(),
	}
	for _, r := range records {
		entry.RecordIDs = append(entry.RecordIDs, r.ID)
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.opts.audit.Record(ctx, entry)
}

// InsertRecords creates the batch, firing before and after insert triggers.
func (s *Service) InsertRecords(ctx context.Context, entity EntityType, records []Record) ([]Record, error) {
	return s.run(ctx, "insert_records", entity, func(ctx context.Context) ([]Record, error) {
		return s.store.Insert(ctx, entity, records)
	})
}

// UpdateRecords rewrites the batch, firing before and after update triggers.
func (s *Service) UpdateRecords(ctx context.Context, entity EntityType, records []Record) ([]Record, error) {
	return s.run(ctx, "update_records", entity, func(ctx context.Context) ([]Record, error) {
		return s.store.Update(ctx, entity, records)
	})
}

// DeleteRecords moves records into the recycle bin, firing before and
// after delete triggers.
func (s *Service) DeleteRecords(ctx context.Context, entity EntityType, ids []string) ([]Record, error) {
	return s.run(ctx, "delete_records", entity, func(ctx context.Context) ([]Record, error) {
		return s.store.Delete(ctx, entity, ids)
	})
}

// UndeleteRecords restores records from the recycle bin, firing after
// undelete triggers.
func (s *Service) UndeleteRecords(ctx context.Context, entity EntityType, ids []string) ([]Record, error) {
	return s.run(ctx, "undelete_records", entity, func(ctx context.Context) ([]Record, error) {
		return s.store.Undelete(ctx, entity, ids)
	})
}

// GetRecord fetches a live record.
func (s *Service) GetRecord(entity EntityType, id string) (Record, bool) {
	return s.store.Get(entity, id)
}

// ListRecords lists live records of the entity type.
func (s *Service) ListRecords(entity EntityType) []Record {
	return s.store.List(entity)
}

// ListDeletedRecords lists recycle-bin records of the entity type.
func (s *Service) ListDeletedRecords(entity EntityType) []Record {
	return s.store.ListDeleted(entity)
}

// SetKillSwitch disables (or re-enables) trigger delivery for the named
// entity type, or for everything when name is trigger.SwitchAll.
func (s *Service) SetKillSwitch(ctx context.Context, name string, disabled bool) (Switch, error) {
	sw, err := s.store.SetSwitch(ctx, trigger.Switch{Name: name, Disabled: disabled})
	if err != nil {
		s.opts.logger.Error("set kill switch failed", "switch", name, "error", err)
		return Switch{}, err
	}
	s.opts.logger.Info("kill switch set", "switch", sw.Name, "disabled", sw.Disabled)
	return sw, nil
}

// ClearKillSwitch removes the named switch entirely; delivery falls back
// to enabled.
func (s *Service) ClearKillSwitch(ctx context.Context, name string) (bool, error) {
	removed, err := s.store.DeleteSwitch(ctx, name)
	if err != nil {
		s.opts.logger.Error("clear kill switch failed", "switch", name, "error", err)
		return false, err
	}
	if removed {
		s.opts.logger.Info("kill switch cleared", "switch", name)
	}
	return removed, nil
}

// ListKillSwitches returns all configured switches.
func (s *Service) ListKillSwitches() []Switch {
	return s.store.ListSwitches()
}
