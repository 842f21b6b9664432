package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
)

// RedisStore is a Redis-backed Store. It uses go-redis connection pooling
// and is safe for concurrent use by multiple goroutines.
type RedisStore struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// NewRedisStore connects to Redis and verifies connectivity with a ping.
//
// Parameters:
//   - cfg: Redis connection and pool settings
//   - logger: structured logger
//
// Returns an error if the URL cannot be parsed or the server is unreachable.
func NewRedisStore(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password // pragma: allowlist secret
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConn
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.PoolTimeout = cfg.PoolTimeout
	opts.ConnMaxIdleTime = cfg.IdleTimeout

	store := NewRedisStoreFromClient(redis.NewClient(opts), logger)

	if pingErr := store.Ping(context.Background()); pingErr != nil {
		_ = store.rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}

	logger.Info("Connected to Redis successfully")

	return store, nil
}

// NewRedisStoreFromClient wraps an existing go-redis client.
func NewRedisStoreFromClient(rdb *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

// Client exposes the underlying go-redis client, e.g. for rate limiting.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get session key: %w", err)
	}
	return value, nil
}

// Set stores value under key with the given ttl.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session key: %w", err)
	}

	s.logger.WithField("key", key).Debug("Session key stored")
	return nil
}

// Delete removes the keys. This operation is idempotent.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session keys: %w", err)
	}
	return nil
}

// Ping verifies connectivity to the Redis server.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close gracefully closes the Redis connection pool.
func (s *RedisStore) Close() error {
	if err := s.rdb.Close(); err != nil {
		s.logger.WithError(err).Error("Failed to close Redis connection")
		return err
	}
	s.logger.Info("Redis connection closed")
	return nil
}
