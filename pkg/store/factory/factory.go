// Package factory builds the persistent cache storage selected by configuration.
package factory

import (
	"fmt"
	"io"
	"strings"

	"github.com/nimburion/i18nloader/pkg/config"
	"github.com/nimburion/i18nloader/pkg/observability/logger"
	"github.com/nimburion/i18nloader/pkg/store"
	"github.com/nimburion/i18nloader/pkg/store/dynamodb"
	"github.com/nimburion/i18nloader/pkg/store/memcached"
	"github.com/nimburion/i18nloader/pkg/store/memory"
	"github.com/nimburion/i18nloader/pkg/store/redis"
)

// NewStorage selects and initializes the storage backend named by cfg.Type.
// An empty type selects the memory backend.
func NewStorage(cfg config.StorageConfig, log logger.Logger) (store.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", config.StorageTypeMemory:
		return memory.New(cfg.Quota), nil
	case config.StorageTypeNone:
		return store.Disabled{}, nil
	case config.StorageTypeRedis:
		return redis.NewAdapter(redis.Config{
			URL:              cfg.Redis.URL,
			MaxConns:         cfg.Redis.MaxConns,
			OperationTimeout: cfg.Redis.OperationTimeout,
			Prefix:           cfg.Redis.Prefix,
		}, log)
	case config.StorageTypeMemcached:
		return memcached.NewStorage(memcached.Config{
			Addresses: cfg.Memcached.Addresses,
			Timeout:   cfg.Memcached.Timeout,
			Prefix:    cfg.Memcached.Prefix,
		}, log)
	case config.StorageTypeDynamoDB:
		return dynamodb.NewAdapter(dynamodb.Config{
			Table:            cfg.DynamoDB.Table,
			Region:           cfg.DynamoDB.Region,
			Endpoint:         cfg.DynamoDB.Endpoint,
			Partition:        cfg.DynamoDB.Partition,
			AccessKeyID:      cfg.DynamoDB.AccessKeyID,
			SecretAccessKey:  cfg.DynamoDB.SecretAccessKey,
			OperationTimeout: cfg.DynamoDB.OperationTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported storage.type %q (supported: memory, redis, memcached, dynamodb, none)", cfg.Type)
	}
}

// Close releases the backend's connections, if it holds any.
func Close(s store.Storage) error {
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
