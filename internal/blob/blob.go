// Package blob re-exports the artifact store abstractions and selects a
// backend from configuration.
package blob

import (
	"context"
	"fmt"

	"triggercore/internal/blob/core"
	"triggercore/internal/config"
	"triggercore/internal/infra/blob/fs"
	"triggercore/internal/infra/blob/memory"
	"triggercore/internal/infra/blob/s3"
)

type (
	// Driver identifies an artifact backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for artifact storage backends.
	Store = core.Store
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
)

// NewMemory returns an in-memory artifact store.
func NewMemory() Store { return memory.New() }

// Open selects an artifact store from the resolved configuration. See
// config.Load for the TRIGGERCORE_BLOB_* environment variables involved.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch Driver(cfg.BlobDriver) {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(cfg.BlobFSRoot)
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			SessionToken:    cfg.S3SessionToken,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.BlobDriver)
	}
}
