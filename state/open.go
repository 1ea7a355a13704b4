package state

import (
	"context"
	"fmt"

	"github.com/grovetools/ftrack/config"
)

// Open builds the backend selected by the storage configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.ResolvedPath()), nil
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.ResolvedPath())
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
