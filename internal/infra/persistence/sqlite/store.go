// Package sqlite provides a SQLite-backed record store that mirrors the
// in-memory delivery semantics and snapshots full state after every
// successful mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jinzhu/inflection"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"triggercore/internal/infra/persistence/memory"
	"triggercore/pkg/trigger"
)

// Compile-time contract assertion.
var _ trigger.Store = (*Store)(nil)

const (
	switchesBucket = "switches"
	recordsPrefix  = "records_"
	deletedPrefix  = "deleted_"
)

// Store persists the in-memory state to a single SQLite table as JSON
// blobs, one bucket per entity type plus the recycle bin and switches.
// Bucket keys carry the raw entity name so reloads recover the exact
// type; the pluralized label column is display only.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed store.
func NewStore(path string, registry *trigger.Registry) (*Store, error) {
	if path == "" {
		path = "triggercore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(registry), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// bucketLabel derives the human-readable label stored beside a bucket,
// pluralized the way table names are ("order" -> "orders"). Labels are
// never parsed back: Singular(Plural(x)) is not the identity for
// irregular nouns, so round-tripping entity names through them would
// silently retype records.
func bucketLabel(entity trigger.EntityType) string {
	return inflection.Plural(string(entity))
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{
		Records: make(map[trigger.EntityType][]trigger.Record),
		Deleted: make(map[trigger.EntityType][]trigger.Record),
	}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		loaded = true
		switch {
		case bucket == switchesBucket:
			if err := json.Unmarshal(payload, &snapshot.Switches); err != nil {
				return fmt.Errorf("decode switches: %w", err)
			}
		case strings.HasPrefix(bucket, deletedPrefix):
			var records []trigger.Record
			if err := json.Unmarshal(payload, &records); err != nil {
				return fmt.Errorf("decode %s: %w", bucket, err)
			}
			snapshot.Deleted[trigger.EntityType(strings.TrimPrefix(bucket, deletedPrefix))] = records
		case strings.HasPrefix(bucket, recordsPrefix):
			var records []trigger.Record
			if err := json.Unmarshal(payload, &records); err != nil {
				return fmt.Errorf("decode %s: %w", bucket, err)
			}
			snapshot.Records[trigger.EntityType(strings.TrimPrefix(bucket, recordsPrefix))] = records
		default:
			return fmt.Errorf("unknown bucket %q", bucket)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !loaded {
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	// Buckets are dynamic, so clear before rewriting: an entity whose last
	// record was removed must not resurrect on reload.
	if _, err := tx.Exec(`DELETE FROM state`); err != nil {
		retErr = fmt.Errorf("clear state: %w", err)
		return retErr
	}
	write := func(bucket, label string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,label,payload) VALUES(?,?,?)`, bucket, label, data); err != nil {
			return fmt.Errorf("insert %s: %w", bucket, err)
		}
		return nil
	}
	for entity, records := range snapshot.Records {
		if retErr = write(recordsPrefix+string(entity), bucketLabel(entity), records); retErr != nil {
			return retErr
		}
	}
	for entity, records := range snapshot.Deleted {
		if retErr = write(deletedPrefix+string(entity), deletedPrefix+bucketLabel(entity), records); retErr != nil {
			return retErr
		}
	}
	if len(snapshot.Switches) > 0 {
		if retErr = write(switchesBucket, switchesBucket, snapshot.Switches); retErr != nil {
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// Insert delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) Insert(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	out, err := s.Store.Insert(ctx, entity, records)
	if err != nil {
		return out, err
	}
	return out, s.persist()
}

// Update delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) Update(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	out, err := s.Store.Update(ctx, entity, records)
	if err != nil {
		return out, err
	}
	return out, s.persist()
}

// Delete delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) Delete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	out, err := s.Store.Delete(ctx, entity, ids)
	if err != nil {
		return out, err
	}
	return out, s.persist()
}

// Undelete delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) Undelete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	out, err := s.Store.Undelete(ctx, entity, ids)
	if err != nil {
		return out, err
	}
	return out, s.persist()
}

// SetSwitch delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) SetSwitch(ctx context.Context, sw trigger.Switch) (trigger.Switch, error) {
	out, err := s.Store.SetSwitch(ctx, sw)
	if err != nil {
		return out, err
	}
	return out, s.persist()
}

// DeleteSwitch delegates to the in-memory store, then snapshots to SQLite.
func (s *Store) DeleteSwitch(ctx context.Context, name string) (bool, error) {
	removed, err := s.Store.DeleteSwitch(ctx, name)
	if err != nil {
		return removed, err
	}
	return removed, s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
