package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

const (
	cacheVersionKey = "inventory:version"
	bumpChannel     = "inventory.bump"
	productsKey     = "inventory:products"
)

// Cache keeps the product listing in Redis under a versioned key. Bumping the
// version orphans every older listing, which then expires on its TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache builds the cache. A nil client makes every read hit the loader.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current listing version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Products returns the cached listing or loads it. Concurrent misses for the
// same version share one loader call.
func (c *Cache) Products(ctx context.Context, loader func(context.Context) ([]ledger.Product, error)) ([]ledger.Product, error) {
	if loader == nil {
		return nil, errors.New("inventory cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return loader(ctx)
	}
	key := productsKey + ":" + strconv.FormatInt(ver, 10)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var products []ledger.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			return products, nil
		}
	}
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		products, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(products); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return products, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]ledger.Product), nil
	}
}

// Invalidate bumps the version and announces it to other instances.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

var _ ListCache = (*Cache)(nil)
