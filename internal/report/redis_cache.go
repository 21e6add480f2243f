package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wallet-analyzer/internal/config"
	apperrors "github.com/wallet-analyzer/internal/errors"
	"github.com/wallet-analyzer/internal/logging"
	"github.com/wallet-analyzer/internal/models"
)

// RedisCache is a read-through cache in front of a durable Store. Cache
// failures degrade to the inner store and are logged, never surfaced.
type RedisCache struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redis and wraps the inner store. The connection
// is verified eagerly so misconfiguration fails at startup.
func NewRedisCache(ctx context.Context, cfg *config.RedisConfig, inner Store) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.MaxConnections,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.NewStorageError("connect to redis", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{inner: inner, client: client, ttl: ttl}, nil
}

func cacheKey(address string) string {
	return "wallet:report:" + Key(address)
}

func (c *RedisCache) Load(ctx context.Context, address string) (*models.WalletReport, error) {
	data, err := c.client.Get(ctx, cacheKey(address)).Bytes()
	if err == nil {
		var report models.WalletReport
		if jsonErr := json.Unmarshal(data, &report); jsonErr == nil {
			return &report, nil
		}
		// Corrupt cache entry, fall through to the durable store.
		c.client.Del(ctx, cacheKey(address))
	} else if err != redis.Nil {
		logging.FromContext(ctx).WithError(err).Warn("report cache read failed")
	}

	report, err := c.inner.Load(ctx, address)
	if err != nil || report == nil {
		return report, err
	}
	c.populate(ctx, report)
	return report, nil
}

// Save writes through to the durable store first, then refreshes the cache
// so readers never see an entry newer than what is persisted.
func (c *RedisCache) Save(ctx context.Context, report *models.WalletReport) error {
	if err := c.inner.Save(ctx, report); err != nil {
		return err
	}
	c.populate(ctx, report)
	return nil
}

func (c *RedisCache) populate(ctx context.Context, report *models.WalletReport) {
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(report.Address), data, c.ttl).Err(); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("report cache write failed")
	}
}

func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		return err
	}
	return c.inner.Close()
}
