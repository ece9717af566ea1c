package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds connection settings for the Redis store
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore is a Store backed by Redis, shared between API replicas
type RedisStore struct {
	client     *redis.Client
	ownsClient bool
	prefix     string
	logger     *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := NewRedisStoreWithClient(client, cfg.KeyPrefix, logger)
	store.ownsClient = true
	return store, nil
}

// NewRedisStoreWithClient wraps an existing client. The caller keeps ownership of it.
func NewRedisStoreWithClient(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("Cache miss", zap.String("key", key))
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read %q from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Dropping corrupted cache entry", zap.String("key", key), zap.Error(err))
		_ = s.client.Del(ctx, s.key(key))
		return ErrMiss
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %q to cache: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Version(ctx context.Context, counter string) (int64, error) {
	v, err := s.client.Get(ctx, s.key(counter)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read version %q: %w", counter, err)
	}
	return v, nil
}

func (s *RedisStore) Bump(ctx context.Context, counter string) (int64, error) {
	v, err := s.client.Incr(ctx, s.key(counter)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to bump version %q: %w", counter, err)
	}
	return v, nil
}

func (s *RedisStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
