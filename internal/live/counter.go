// Package live keeps the fast per-raffle participant counter that display
// pages poll between refreshes. The store count stays the source of truth;
// this layer only has to be cheap and roughly current.
package live

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "tombola/pkg/domain"
)

const (
	// Redis key prefix for live participant counts
	countKeyPrefix = "raffle:participants:"

	// Counters expire so a raffle that stops being polled cleans up after
	// itself; the next read-through reconciles from the store.
	countTTL = 24 * time.Hour
)

// RedisCounter is a Redis-backed counter shared across instances.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter constructs a Redis-backed live counter.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func countKey(raffleID id.RaffleID) string {
	return countKeyPrefix + raffleID.String()
}

// Increment bumps the counter and returns the new value. A miss (no key)
// still increments from zero; the read path reconciles against the store
// before the counter is ever trusted.
func (c *RedisCounter) Increment(ctx context.Context, raffleID id.RaffleID) (int, error) {
	key := countKey(raffleID)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, countTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Count returns the cached count. The second result reports whether a value
// was present at all.
func (c *RedisCounter) Count(ctx context.Context, raffleID id.RaffleID) (int, bool, error) {
	val, err := c.client.Get(ctx, countKey(raffleID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Set overwrites the counter with the authoritative store count.
func (c *RedisCounter) Set(ctx context.Context, raffleID id.RaffleID, count int) error {
	return c.client.Set(ctx, countKey(raffleID), count, countTTL).Err()
}

// MemoryCounter is the single-process fallback used when Redis is not
// configured, and by tests.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[id.RaffleID]int
}

// NewMemoryCounter constructs an in-memory live counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[id.RaffleID]int)}
}

func (c *MemoryCounter) Increment(_ context.Context, raffleID id.RaffleID) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[raffleID]++
	return c.counts[raffleID], nil
}

func (c *MemoryCounter) Count(_ context.Context, raffleID id.RaffleID) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.counts[raffleID]
	return count, ok, nil
}

func (c *MemoryCounter) Set(_ context.Context, raffleID id.RaffleID, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[raffleID] = count
	return nil
}
