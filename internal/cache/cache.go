package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrMiss is returned by Get when the key is absent or the stored value
// cannot be decoded. Cache read failures also surface as misses: the cache
// is an optimization, not a source of truth.
var ErrMiss = errors.New("cache miss")

// Cache is a JSON-over-Redis key-value adapter with per-entry TTLs.
type Cache struct {
	client *redis.Client
	log    zerolog.Logger
}

func New(client *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{client: client, log: log}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Error().Err(err).Str("key", key).Msg("cache get failed")
		}
		return ErrMiss
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache entry undecodable")
		return ErrMiss
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Remember implements cache-aside: return the cached value when present,
// otherwise compute it, store it with ttl, and return it.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, dest any, compute func() (any, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}

	fresh, err := compute()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, fresh, ttl); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache set failed")
	}

	raw, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Key joins segments into a colon-separated cache key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
