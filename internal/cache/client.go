// Package cache provides the Redis-backed result cache: a degrade-safe store
// client, deterministic key building, and typed wrappers for the two cache
// classes (simulation results and list views).
package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Connection retry policy. Once the attempt or elapsed-time budget is spent
// the client gives up permanently and every operation returns its safe
// default, so the simulation path stays correct, just uncached.
const (
	maxConnectAttempts = 10
	maxConnectElapsed  = time.Hour
	maxConnectBackoff  = 3 * time.Second
)

// Client wraps a Redis connection and degrades every operation to a safe
// default (false, zero value, empty slice) when the store is unreachable.
// It is constructed once at process start and passed to the components that
// need it; tests substitute a miniredis address.
type Client struct {
	rdb       *redis.Client
	connected atomic.Bool
}

// New creates an unconnected client for addr (host:port). Call Connect before use.
func New(addr string) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 5 * time.Second})}
}

// NewFromURL creates an unconnected client from a redis:// URL.
func NewFromURL(url string) (*Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opt.DialTimeout = 5 * time.Second
	return &Client{rdb: redis.NewClient(opt)}, nil
}

// Connect pings the store with capped exponential backoff until it succeeds
// or the retry budget is spent. Returns whether a connection was established.
func (c *Client) Connect(ctx context.Context) bool {
	start := time.Now()
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		if err := c.rdb.Ping(ctx).Err(); err == nil {
			c.connected.Store(true)
			log.Printf("cache: connected to redis")
			return true
		} else {
			log.Printf("cache: connect attempt %d/%d failed: %v", attempt, maxConnectAttempts, err)
		}
		if time.Since(start) > maxConnectElapsed {
			break
		}
		backoff := time.Duration(attempt) * 100 * time.Millisecond
		if backoff > maxConnectBackoff {
			backoff = maxConnectBackoff
		}
		select {
		case <-ctx.Done():
			log.Printf("cache: connect canceled, continuing without cache")
			return false
		case <-time.After(backoff):
		}
	}
	log.Printf("cache: giving up on redis, continuing without cache")
	return false
}

// Ready reports whether the store was reached at least once.
func (c *Client) Ready() bool { return c.connected.Load() }

// Get loads key into dest. Returns false on miss, decode failure, or when
// the store is unavailable.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if !c.Ready() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: GET %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key with the given TTL (0 means no expiry).
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Ready() {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return false
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache: SET %s: %v", key, err)
		return false
	}
	return true
}

func (c *Client) Del(ctx context.Context, keys ...string) bool {
	if !c.Ready() || len(keys) == 0 {
		return false
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: DEL: %v", err)
		return false
	}
	return true
}

func (c *Client) Exists(ctx context.Context, key string) bool {
	if !c.Ready() {
		return false
	}
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("cache: EXISTS %s: %v", key, err)
		return false
	}
	return n == 1
}

func (c *Client) Keys(ctx context.Context, pattern string) []string {
	if !c.Ready() {
		return []string{}
	}
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("cache: KEYS %s: %v", pattern, err)
		return []string{}
	}
	return keys
}

// FlushAll wipes the whole database, including entries of any other consumer
// sharing the store. Exposed only behind the explicit cache-clear admin action.
func (c *Client) FlushAll(ctx context.Context) bool {
	if !c.Ready() {
		return false
	}
	if err := c.rdb.FlushAll(ctx).Err(); err != nil {
		log.Printf("cache: FLUSHALL: %v", err)
		return false
	}
	return true
}

func (c *Client) Close() error {
	c.connected.Store(false)
	return c.rdb.Close()
}
