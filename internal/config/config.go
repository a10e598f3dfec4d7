// Package config resolves process configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries the resolved runtime settings for storage and the audit
// archive blob backend.
type Config struct {
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string

	BlobDriver string
	BlobFSRoot string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3SessionToken    string
}

// Load reads TRIGGERCORE_-prefixed environment variables, e.g.
// TRIGGERCORE_STORAGE_DRIVER or TRIGGERCORE_S3_BUCKET, applying defaults
// for anything unset.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("triggercore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("sqlite.path", "triggercore.db")
	v.SetDefault("blob.driver", "memory")
	v.SetDefault("blob.fs.root", "triggercore-artifacts")

	cfg := Config{
		StorageDriver:     v.GetString("storage.driver"),
		SQLitePath:        v.GetString("sqlite.path"),
		PostgresDSN:       v.GetString("postgres.dsn"),
		BlobDriver:        v.GetString("blob.driver"),
		BlobFSRoot:        v.GetString("blob.fs.root"),
		S3Bucket:          v.GetString("s3.bucket"),
		S3Region:          v.GetString("s3.region"),
		S3Endpoint:        v.GetString("s3.endpoint"),
		S3PathStyle:       v.GetBool("s3.path.style"),
		S3AccessKeyID:     v.GetString("s3.access.key.id"),
		S3SecretAccessKey: v.GetString("s3.secret.access.key"),
		S3SessionToken:    v.GetString("s3.session.token"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	switch c.BlobDriver {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.StorageDriver == "postgres" && strings.TrimSpace(c.PostgresDSN) == "" {
		return fmt.Errorf("postgres driver selected but TRIGGERCORE_POSTGRES_DSN is empty")
	}
	if c.BlobDriver == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		return fmt.Errorf("s3 blob driver selected but TRIGGERCORE_S3_BUCKET is empty")
	}
	return nil
}
