package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store"
)

const (
	defaultPrefix    = "i18nloader"
	defaultOpTimeout = 2 * time.Second
	scanBatch        = 100
)

// Config holds Redis connection configuration.
type Config struct {
	URL              string
	MaxConns         int
	OperationTimeout time.Duration
	// Prefix namespaces every key as "<prefix>:<key>".
	Prefix string
}

// Adapter is a store.Storage kept in Redis, so catalogs cached by one
// process are visible to every process sharing the instance.
type Adapter struct {
	client    *redis.Client
	logger    logger.Logger
	opTimeout time.Duration
	prefix    string
}

// NewAdapter connects to Redis and verifies the connection.
func NewAdapter(cfg Config, log logger.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("redis URL is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		opts.PoolSize = cfg.MaxConns
	}
	opts.DialTimeout = 5 * time.Second
	if cfg.OperationTimeout > 0 {
		opts.ReadTimeout = cfg.OperationTimeout
		opts.WriteTimeout = cfg.OperationTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	adapter := NewFromClient(client, cfg, log)
	adapter.logger.Info("Redis storage connected",
		"max_conns", cfg.MaxConns,
		"operation_timeout", adapter.opTimeout,
		"prefix", adapter.prefix,
	)
	return adapter, nil
}

// NewFromClient wraps an existing client. cfg.URL is ignored.
func NewFromClient(client *redis.Client, cfg Config, log logger.Logger) *Adapter {
	timeout := cfg.OperationTimeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Adapter{
		client:    client,
		logger:    logger.OrNop(log),
		opTimeout: timeout,
		prefix:    prefix,
	}
}

// GetItem implements store.Storage.
func (a *Adapter) GetItem(key string) (string, error) {
	ctx, cancel := a.opContext()
	defer cancel()
	val, err := a.client.Get(ctx, a.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// SetItem implements store.Storage. Items never expire; the catalog cache
// sweeps its own records.
func (a *Adapter) SetItem(key, value string) error {
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.client.Set(ctx, a.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// RemoveItem implements store.Storage.
func (a *Adapter) RemoveItem(key string) error {
	ctx, cancel := a.opContext()
	defer cancel()
	if err := a.client.Del(ctx, a.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Keys implements store.Storage using SCAN over the adapter prefix.
func (a *Adapter) Keys() ([]string, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var (
		keys   []string
		cursor uint64
	)
	match := a.prefix + ":*"
	for {
		page, next, err := a.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		for _, key := range page {
			keys = append(keys, strings.TrimPrefix(key, a.prefix+":"))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Ping verifies the Redis connection is alive.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// HealthCheck verifies the connection within a short timeout.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	hcCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := a.Ping(hcCtx); err != nil {
		a.logger.Error("Redis health check failed", "error", err)
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (a *Adapter) Close() error {
	if a.client == nil {
		return nil
	}
	a.logger.Info("Closing Redis storage")
	if err := a.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

func (a *Adapter) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.opTimeout)
}

func (a *Adapter) key(key string) string {
	return a.prefix + ":" + key
}
