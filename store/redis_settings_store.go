package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// serviceEnabledKey is the key-value storage slot for the persisted
// service-enabled flag.
const serviceEnabledKey = "location:service_enabled"

// RedisSettingsStore persists settings in the host key-value store.
type RedisSettingsStore struct {
	rdb *redis.Client
}

// NewRedisSettingsStore creates a store backed by the given Redis client.
func NewRedisSettingsStore(rdb *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{rdb: rdb}
}

func (s *RedisSettingsStore) LoadServiceEnabled(ctx context.Context, def bool) (bool, error) {
	val, err := s.rdb.Get(ctx, serviceEnabledKey).Result()
	if err == redis.Nil {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("failed to load service-enabled flag: %w", err)
	}
	return val == "1", nil
}

func (s *RedisSettingsStore) SaveServiceEnabled(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	if err := s.rdb.Set(ctx, serviceEnabledKey, val, 0).Err(); err != nil {
		return fmt.Errorf("failed to save service-enabled flag: %w", err)
	}
	return nil
}
