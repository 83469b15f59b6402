// Package storage holds the networked and on-disk implementations of the
// cosave record store.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

// Open builds the store selected by cfg.Store. A Redis store is waited on
// until it answers.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Store {
	case config.StoreMemory, "":
		return storage.NewMemoryStorage(), nil
	case config.StoreRedis:
		r, err := NewRedisStorage(cfg.RedisURL, cfg.SaveTTL, logger)
		if err != nil {
			return nil, err
		}
		if err := r.WaitForConnection(ctx, 30, 2*time.Second); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case config.StoreSQLite:
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
