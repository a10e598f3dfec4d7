// Package postgres provides a Postgres-backed record store using the
// same full-state snapshot scheme as the sqlite backend.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/jinzhu/inflection"

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

// sqlOpen is swappable so tests can run without a live server.
var sqlOpen = sql.Open

// OverrideSQLOpen replaces the database/sql opener and returns a restore
// function. Test hook only.
func OverrideSQLOpen(open func(driver, dsn string) (*sql.DB, error)) func() {
	prev := sqlOpen
	sqlOpen = open
	return func() { sqlOpen = prev }
}

// Store persists the in-memory state to a Postgres table as JSONB
// payloads, one bucket per entity type plus the recycle bin and switches.
// Bucket keys carry the raw entity name so reloads recover the exact
// type; the pluralized label column is display only.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore connects to Postgres, ensures the state table exists, and
// rehydrates any previously persisted snapshot.
func NewStore(ctx context.Context, dsn string, registry *trigger.Registry) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS trigger_state (
		bucket TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		payload JSONB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(registry), db: db}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// bucketLabel mirrors the sqlite store: pluralized display name only,
// never parsed back into an entity type.
func bucketLabel(entity trigger.EntityType) string {
	return inflection.Plural(string(entity))
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM trigger_state`)
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

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM trigger_state`); err != nil {
		retErr = fmt.Errorf("clear state: %w", err)
		return retErr
	}
	write := func(bucket, label string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trigger_state(bucket,label,payload) VALUES($1,$2,$3)
			 ON CONFLICT (bucket) DO UPDATE SET label = EXCLUDED.label, payload = EXCLUDED.payload`,
			bucket, label, data); err != nil {
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

// Insert delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) Insert(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	out, err := s.Store.Insert(ctx, entity, records)
	if err != nil {
		return out, err
	}
	return out, s.persist(ctx)
}

// Update delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) Update(ctx context.Context, entity trigger.EntityType, records []trigger.Record) ([]trigger.Record, error) {
	out, err := s.Store.Update(ctx, entity, records)
	if err != nil {
		return out, err
	}
	return out, s.persist(ctx)
}

// Delete delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) Delete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	out, err := s.Store.Delete(ctx, entity, ids)
	if err != nil {
		return out, err
	}
	return out, s.persist(ctx)
}

// Undelete delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) Undelete(ctx context.Context, entity trigger.EntityType, ids []string) ([]trigger.Record, error) {
	out, err := s.Store.Undelete(ctx, entity, ids)
	if err != nil {
		return out, err
	}
	return out, s.persist(ctx)
}

// SetSwitch delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) SetSwitch(ctx context.Context, sw trigger.Switch) (trigger.Switch, error) {
	out, err := s.Store.SetSwitch(ctx, sw)
	if err != nil {
		return out, err
	}
	return out, s.persist(ctx)
}

// DeleteSwitch delegates to the in-memory store, then snapshots to Postgres.
func (s *Store) DeleteSwitch(ctx context.Context, name string) (bool, error) {
	removed, err := s.Store.DeleteSwitch(ctx, name)
	if err != nil {
		return removed, err
	}
	return removed, s.persist(ctx)
}
