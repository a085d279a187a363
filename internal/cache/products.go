// Package cache provides a best-effort redis cache in front of the product
// collection. Every method is safe on a nil receiver, so callers can wire the
// cache only when redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aldermere/storefront/internal/domain"
)

// DefaultTTL bounds staleness for entries that miss an invalidation.
const DefaultTTL = 5 * time.Minute

// Products is a read-through cache for product lookups by id.
type Products struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect dials redis and verifies the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewProducts creates a product cache. ttl <= 0 uses DefaultTTL.
func NewProducts(client *redis.Client, ttl time.Duration) *Products {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Products{client: client, ttl: ttl}
}

// Get returns the cached product, or false on a miss. Cache failures are
// treated as misses.
func (c *Products) Get(ctx context.Context, id string) (*domain.Product, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Set stores the product. Failures are ignored; the store stays the source
// of truth.
func (c *Products) Set(ctx context.Context, p *domain.Product) {
	if c == nil || p == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.client.Set(ctx, key(p.ID), raw, c.ttl)
}

// Invalidate drops the cached entry after a mutation.
func (c *Products) Invalidate(ctx context.Context, id string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, key(id))
}

func key(id string) string { return "product:" + id }
