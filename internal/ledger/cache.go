package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "ledger:balance:version"

// Cache wraps Redis based caching of balance snapshots with versioning
// controls. Registering a payment bumps the version, invalidating every
// cached snapshot at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates all cached snapshots by advancing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) buildKey(ctx context.Context, kind EntityKind, entityID int64) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ledger:balance:%s:%d:%d", kind, entityID, ver), nil
}

// FetchBalance loads a cached snapshot or populates it using the loader.
func (c *Cache) FetchBalance(ctx context.Context, kind EntityKind, entityID int64, loader func(context.Context) (BalanceResult, error)) (BalanceResult, error) {
	if loader == nil {
		return BalanceResult{}, errors.New("ledger: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.buildKey(ctx, kind, entityID)
	if err != nil {
		return BalanceResult{}, err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached BalanceResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		// Fall through and recompute on decode failure.
	} else if err != redis.Nil {
		return BalanceResult{}, err
	}
	result, err := loader(ctx)
	if err != nil {
		return BalanceResult{}, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return BalanceResult{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return BalanceResult{}, err
	}
	return result, nil
}
