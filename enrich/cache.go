package enrich

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a metadata record stays cached.
const DefaultCacheTTL = time.Hour

const cacheKeyPrefix = "care-symbols:metadata:"

// RedisCache caches metadata records as JSON strings in Redis.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a cache over an existing client.
//
// Arguments:
//   - client: The Redis client.
//   - ttl: Entry expiry. Zero or less means DefaultCacheTTL.
//
// Returns:
//   - *RedisCache: The cache.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached record for title, if any.
func (c *RedisCache) Get(ctx context.Context, title string) (*Metadata, bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+title).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}

	md := &Metadata{}
	if err := json.Unmarshal(raw, md); err != nil {
		return nil, false, errors.Wrapf(err, "corrupt cache entry for %q", title)
	}
	return md, true, nil
}

// Set stores the record for title.
func (c *RedisCache) Set(ctx context.Context, title string, md *Metadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return errors.Wrap(err, "failed to encode metadata")
	}
	return errors.Wrap(c.client.Set(ctx, cacheKeyPrefix+title, raw, c.ttl).Err(), "redis set")
}
