// Package archive flushes audit entries to an artifact store as JSON
// batch documents.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"triggercore/internal/blob"
	"triggercore/internal/core"
)

// ErrEmptyBatch is returned when there is nothing to archive.
var ErrEmptyBatch = errors.New("archive: empty batch")

// Document is the serialized form of one archived batch.
type Document struct {
	ArchivedAt time.Time         `json:"archived_at"`
	Count      int               `json:"count"`
	Entries    []core.AuditEntry `json:"entries"`
}

// Archiver writes audit batches to an artifact store under a key prefix.
type Archiver struct {
	store  blob.Store
	prefix string
	clock  core.Clock
	seq    atomic.Uint64
}

// Option customizes archiver construction.
type Option func(*Archiver)

// WithPrefix overrides the default "audit" key prefix.
func WithPrefix(prefix string) Option {
	return func(a *Archiver) {
		if prefix != "" {
			a.prefix = prefix
		}
	}
}

// WithClock overrides the archiver clock.
func WithClock(clock core.Clock) Option {
	return func(a *Archiver) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New constructs an archiver over the artifact store.
func New(store blob.Store, opts ...Option) *Archiver {
	a := &Archiver{
		store:  store,
		prefix: "audit",
		clock:  core.ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ArchiveEntries serializes the batch and stores it under a timestamped
// key. The sequence suffix keeps keys unique within one clock tick.
func (a *Archiver) ArchiveEntries(ctx context.Context, entries []core.AuditEntry) (blob.Info, error) {
	if len(entries) == 0 {
		return blob.Info{}, ErrEmptyBatch
	}
	now := a.clock.Now()
	doc := Document{ArchivedAt: now, Count: len(entries), Entries: entries}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode batch: %w", err)
	}
	key := fmt.Sprintf("%s/%s/batch-%06d.json", a.prefix, now.Format("2006/01/02"), a.seq.Add(1))
	info, err := a.store.Put(ctx, key, bytes.NewReader(encoded), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"entries": fmt.Sprintf("%d", len(entries))},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store batch: %w", err)
	}
	return info, nil
}

// Flush drains the recorder and archives whatever it held. A drained
// empty recorder is not an error; the zero Info is returned.
func (a *Archiver) Flush(ctx context.Context, recorder *core.MemoryAuditRecorder) (blob.Info, error) {
	entries := recorder.Drain()
	if len(entries) == 0 {
		return blob.Info{}, nil
	}
	return a.ArchiveEntries(ctx, entries)
}

// Load reads one archived batch back.
func (a *Archiver) Load(ctx context.Context, key string) (Document, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = rc.Close() }()
	var doc Document
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode batch: %w", err)
	}
	return doc, nil
}

// List enumerates archived batches, newest key last.
func (a *Archiver) List(ctx context.Context) ([]blob.Info, error) {
	return a.store.List(ctx, a.prefix+"/")
}
