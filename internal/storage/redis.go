package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/form"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/storage"
)

const (
	saveKeyPrefix = "cosave:"
	saveIndexKey  = "cosaves"
)

// RedisStorage keeps each save's records in one hash, keyed by record tag.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to redisURL, which is either a redis:// URL or a
// bare host:port. A positive ttl expires saves that are not rewritten.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	if redisURL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

type redisRecord struct {
	Version uint32 `json:"version"`
	Data    []byte `json:"data"`
}

func saveKey(id uuid.UUID) string {
	return saveKeyPrefix + id.String()
}

func (r *RedisStorage) SaveRecords(ctx context.Context, saveID uuid.UUID, records []storage.Record) error {
	if len(records) == 0 {
		return r.DeleteSave(ctx, saveID)
	}

	fields := make([]any, 0, 2*len(records))
	for _, rec := range records {
		data, err := json.Marshal(redisRecord{Version: rec.Version, Data: rec.Data})
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", rec.Tag, err)
		}
		fields = append(fields, rec.Tag.String(), string(data))
	}

	key := saveKey(saveID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields...)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		pipe.SAdd(ctx, saveIndexKey, saveID.String())
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save records", "save_id", saveID, "error", err)
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadRecords(ctx context.Context, saveID uuid.UUID) ([]storage.Record, error) {
	fields, err := r.client.HGetAll(ctx, saveKey(saveID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		r.logger.Error("Failed to load records", "save_id", saveID, "error", err)
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}

	records := make([]storage.Record, 0, len(fields))
	for tag, raw := range fields {
		var rec redisRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			r.logger.Warn("Skipping malformed record", "save_id", saveID, "tag", tag, "error", err)
			continue
		}
		records = append(records, storage.Record{Tag: form.MakeTag(tag), Version: rec.Version, Data: rec.Data})
	}
	return storage.SortRecords(records), nil
}

func (r *RedisStorage) DeleteSave(ctx context.Context, saveID uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, saveKey(saveID))
		pipe.SRem(ctx, saveIndexKey, saveID.String())
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to delete save", "save_id", saveID, "error", err)
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

// ListSaves lists saves that still have records. Index entries whose hash
// has expired are pruned.
func (r *RedisStorage) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, saveIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.logger.Warn("Skipping malformed save ID", "save_id", m)
			continue
		}
		n, err := r.client.Exists(ctx, saveKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list saves: %w", err)
		}
		if n == 0 {
			r.client.SRem(ctx, saveIndexKey, m)
			continue
		}
		ids = append(ids, id)
	}
	storage.SortSaveIDs(ids)
	return ids, nil
}
