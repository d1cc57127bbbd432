package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"receipt-resender/internal/config"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisLookupCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLookupCache scopes keys under the given run id so concurrent runs
// never read each other's lookups.
func NewRedisLookupCache(rc *redis.Client, runID string, logger *slog.Logger) *RedisLookupCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLookupCache{
		rc:     rc,
		prefix: "receipt-resender:" + runID + ":",
		ttl:    config.LookupCacheTTL,
		logger: logger,
	}
}

func (rlc *RedisLookupCache) key(kind, id string) string {
	return rlc.prefix + kind + ":" + id
}

func (rlc *RedisLookupCache) Get(ctx context.Context, kind, id string) (map[string]any, bool) {
	payload, err := rlc.rc.Get(ctx, rlc.key(kind, id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			rlc.logger.Warn("lookup cache read failed", "kind", kind, "id", id, "error", err)
		}
		return nil, false
	}

	var record map[string]any
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, false
	}
	return record, true
}

func (rlc *RedisLookupCache) Set(ctx context.Context, kind, id string, record map[string]any) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}

	pipe := rlc.rc.Pipeline()
	pipe.Set(ctx, rlc.key(kind, id), payload, rlc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		rlc.logger.Warn("lookup cache write failed", "kind", kind, "id", id, "error", err)
	}
}

func (rlc *RedisLookupCache) Close() error {
	return rlc.rc.Close()
}
