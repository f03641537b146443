// Package cache implements the transaction-aware query cache decorator
// (SPEC_FULL.md §4.8 / §9) over Redis: namespace-prefixed keys, no TTL —
// entries live until explicitly evicted by an import that changes the data
// they were computed from.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// scanBatchSize bounds how many keys EvictTarget inspects per SCAN cursor
// round trip.
const scanBatchSize = 200

// Client wraps a Redis connection with the namespacing and eviction
// semantics QueryEngine and ImportEngine depend on.
type Client struct {
	redis     *redis.Client
	namespace string
}

// New builds a Client. namespace prefixes every key this process writes, so
// multiple services can share one Redis instance safely.
func New(addr, namespace string) *Client {
	return &Client{
		redis:     redis.NewClient(&redis.Options{Addr: addr}),
		namespace: namespace,
	}
}

func (c *Client) namespaced(key string) string {
	return fmt.Sprintf("%s:%s", c.namespace, key)
}

// Get looks up key, returning (nil, false, nil) on a cache miss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.redis.Get(ctx, c.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes key with no expiration — entries are evicted explicitly, never
// by TTL (SPEC_FULL.md §9).
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.redis.Set(ctx, c.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// EvictTarget drops every cached query result for targetCurrency. Imports
// call this after a committed reconcile so stale dense series never survive
// a write that should have changed them.
func (c *Client) EvictTarget(ctx context.Context, targetCurrency string) error {
	pattern := c.namespaced(fmt.Sprintf("rates:%s:*", targetCurrency))

	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys for %s: %w", targetCurrency, err)
		}
		if len(keys) > 0 {
			if err := c.redis.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("unlink cache keys for %s: %w", targetCurrency, err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.redis.Close()
}
