package resumes

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/resumekit/pkg/logger"
)

// countCacheTTL bounds staleness when an invalidation is lost.
const countCacheTTL = 5 * time.Minute

// Counter serves the per-user resume count with a cache in front of the
// store. The count is read on every permission check, the cache keeps that
// off the database. Cache failures fall through to the store.
type Counter struct {
	store Store
	cache CountCache
	log   *slog.Logger
}

// CountCache is the cache surface the Counter needs. RedisCountCache is
// the production implementation; tests use an in-memory fake.
type CountCache interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// NewCounter creates a Counter. Panics if store or cache is nil.
func NewCounter(store Store, cache CountCache, log *slog.Logger) *Counter {
	if store == nil {
		panic("resumes: Store is required")
	}
	if cache == nil {
		panic("resumes: CountCache is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Counter{store: store, cache: cache, log: log}
}

func countKey(userID string) string {
	return "resumes:count:" + userID
}

// Count returns the user's resume count, served from cache when possible.
func (c *Counter) Count(ctx context.Context, userID string) (int64, error) {
	key := countKey(userID)

	count, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "resume count cache read failed, falling back to store",
			logger.UserID(userID), logger.Error(err))
	} else if ok {
		return count, nil
	}

	count, err = c.store.CountByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, count, countCacheTTL); err != nil {
		c.log.WarnContext(ctx, "resume count cache write failed",
			logger.UserID(userID), logger.Error(err))
	}
	return count, nil
}

// Invalidate drops the cached count after a create or delete.
func (c *Counter) Invalidate(ctx context.Context, userID string) {
	if err := c.cache.Del(ctx, countKey(userID)); err != nil {
		c.log.WarnContext(ctx, "resume count cache invalidation failed",
			logger.UserID(userID), logger.Error(err))
	}
}

// RedisCountCache is the Redis-backed CountCache.
type RedisCountCache struct {
	client *redis.Client
}

// NewRedisCountCache wraps the given client.
func NewRedisCountCache(client *redis.Client) *RedisCountCache {
	if client == nil {
		panic("resumes: redis client is required")
	}
	return &RedisCountCache{client: client}
}

func (c *RedisCountCache) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Unparseable entry, treat as a miss and let Set overwrite it.
		return 0, false, nil
	}
	return count, true, nil
}

func (c *RedisCountCache) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return c.client.Set(ctx, key, strconv.FormatInt(value, 10), ttl).Err()
}

func (c *RedisCountCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
