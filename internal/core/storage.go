package core

import (
	"context"
	"fmt"

	"triggercore/internal/config"
	"triggercore/internal/infra/persistence/memory"
	"triggercore/internal/infra/persistence/postgres"
	"triggercore/internal/infra/persistence/sqlite"
	"triggercore/pkg/trigger"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// NewInMemoryService creates a service over a fresh in-memory store bound
// to the given handler registry.
func NewInMemoryService(registry *trigger.Registry, opts ...Option) *Service {
	return NewService(memory.NewStore(registry), opts...)
}

// OpenPersistentStore selects a backend from the resolved configuration.
// See config.Load for the TRIGGERCORE_ environment variables involved;
// the default driver is sqlite.
func OpenPersistentStore(ctx context.Context, cfg config.Config, registry *trigger.Registry) (Store, error) {
	switch StorageDriver(cfg.StorageDriver) {
	case StorageMemory:
		return memory.NewStore(registry), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, registry)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN, registry)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}
