// Package cache is a small Redis-backed byte cache for catalog responses.
//
// Invalidation is by generation: every key embeds the current generation
// number, and Invalidate bumps it with INCR. Old entries are never deleted
// explicitly; they become unreachable and expire on their TTL. This avoids
// SCAN/DEL over the keyspace on every catalog write.
//
// A Cache built with a nil client is disabled: Get always misses and the
// write methods do nothing, so callers never branch on "is Redis configured".
package cache

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = time.Minute

type Cache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Options for NewClient.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings Redis. An empty Addr returns (nil, nil):
// caching is simply off.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: pinging redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// New wraps rdb. prefix namespaces every key this Cache touches.
func New(rdb *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) genKey() string {
	return c.prefix + ":gen"
}

// Generation returns the current generation; 0 if never invalidated.
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	n, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache: reading generation: %w", err)
	}
	return n, nil
}

// Key hashes parts into a key scoped to the current generation.
func (c *Cache) Key(ctx context.Context, parts ...string) (string, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s:%d:%x", c.prefix, gen, sum[:]), nil
}

// Get returns the cached bytes and whether there was a hit. Redis errors
// count as a miss and are logged.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return b, true
}

// Set stores val under key with the cache TTL. Failures are logged, not returned.
func (c *Cache) Set(ctx context.Context, key string, val []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate makes every entry written so far unreachable.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Incr(ctx, c.genKey()).Err(); err != nil {
		return fmt.Errorf("cache: bumping generation: %w", err)
	}
	return nil
}
