// Package cache memoizes read-only endpoint responses in a two-tier cache:
// an in-process map (L1) and an optional Redis instance (L2).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// redisNamespace prefixes every L2 key owned by the cache.
const redisNamespace = "hirewire:cache:"

// Defaults for New.
const (
	DefaultMaxEntries      = 1000
	DefaultCleanupInterval = 5 * time.Minute
)

// Cache is safe for concurrent use. Create one per process with New and
// release it with Close.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	rdb             *redis.Client // nil disables L2
	group           singleflight.Group
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time
	logger          *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// remoteEntry is the L2 payload. StoredAt travels with the value so an L1
// refill from Redis keeps the original age.
type remoteEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

type entry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Option configures a Cache.
type Option func(*Cache)

// WithRedis enables the L2 tier.
func WithRedis(rdb *redis.Client) Option {
	return func(c *Cache) { c.rdb = rdb }
}

// WithMaxEntries bounds the number of L1 entries. Zero or less disables the bound.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithCleanupInterval sets how often expired L1 entries are swept.
// Zero or less disables the background sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) { c.cleanupInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the cache logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Cache and starts its cleanup loop.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]*entry),
		maxEntries:      DefaultMaxEntries,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		logger:          zap.NewNop(),
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("cache initialized",
		zap.Bool("redis", c.rdb != nil),
		zap.Int("max_entries", c.maxEntries))

	if c.cleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Close stops the cleanup loop. It does not close the Redis client.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Key builds the cache key for an endpoint and its filter parameters.
// Filters are serialized with sorted keys, so map order never matters. The
// endpoint stays readable as a prefix to allow selective invalidation.
func Key(endpoint string, filters map[string]string) string {
	names := make([]string, 0, len(filters))
	for k := range filters {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, k := range names {
		pairs[i] = k + "=" + filters[k]
	}

	hash := sha256.Sum256([]byte(endpoint + "|" + strings.Join(pairs, "&")))
	return fmt.Sprintf("%s:%x", endpoint, hash[:12])
}

// GetOrCompute returns the cached value for (endpoint, filters) when it was
// stored less than ttl ago. Otherwise it calls compute and caches the result
// only if compute succeeds. Concurrent misses on the same key share one call
// to compute, which runs without the callers' cancellation. A nil cache
// always computes.
func GetOrCompute[T any](ctx context.Context, c *Cache, endpoint string, filters map[string]string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var out T
	if c == nil || ttl <= 0 {
		return compute(ctx)
	}

	key := Key(endpoint, filters)
	if data, ok := c.get(ctx, key, ttl); ok {
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		c.delete(ctx, key)
	}

	// The shared compute outlives any single caller: a waiter must not see
	// another request's cancellation. Each caller still stops waiting when
	// its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		val, err := compute(shared)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		c.set(shared, key, data, ttl)
		return data, nil
	})

	var v any
	select {
	case res := <-ch:
		if res.Err != nil {
			return out, res.Err
		}
		v = res.Val
	case <-ctx.Done():
		return out, ctx.Err()
	}

	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return out, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return out, nil
}

// get looks up L1, then L2. An L1 entry older than ttl is evicted on read.
func (c *Cache) get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if now.Sub(e.storedAt) < ttl {
			data := e.data
			c.mu.Unlock()
			c.hits.Add(1)
			c.logger.Debug("cache: L1 hit", zap.String("key", key))
			return data, true
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.rdb != nil {
		if data, ok := c.getRemote(ctx, key, now, ttl); ok {
			c.hits.Add(1)
			c.logger.Debug("cache: L2 hit", zap.String("key", key))
			return data, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// getRemote reads key from Redis. A payload stored ttl or more ago counts as
// a miss even if Redis still holds it; a fresh one refills L1 with its
// original store time.
func (c *Cache) getRemote(ctx context.Context, key string, now time.Time, ttl time.Duration) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, redisNamespace+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache: L2 get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var re remoteEntry
	if err := json.Unmarshal(raw, &re); err != nil || re.StoredAt.IsZero() {
		c.logger.Warn("cache: L2 payload unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if now.Sub(re.StoredAt) >= ttl {
		return nil, false
	}

	c.storeLocal(key, re.Data, re.StoredAt, ttl)
	return re.Data, true
}

// set stores data in both tiers. Last write wins.
func (c *Cache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	now := c.now()
	c.storeLocal(key, data, now, ttl)

	if c.rdb == nil {
		return
	}
	payload, err := json.Marshal(remoteEntry{StoredAt: now, Data: data})
	if err != nil {
		c.logger.Warn("cache: L2 encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, redisNamespace+key, payload, ttl).Err(); err != nil {
		c.logger.Warn("cache: L2 set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) storeLocal(key string, data []byte, storedAt time.Time, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.evictLocked(now)
	}
	c.entries[key] = &entry{data: data, storedAt: storedAt, ttl: ttl}
}

func (c *Cache) delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.rdb != nil {
		_ = c.rdb.Del(ctx, redisNamespace+key).Err()
	}
}

// evictLocked makes room for one more L1 entry: expired entries go first,
// then the oldest until the bound holds. c.mu must be held.
func (c *Cache) evictLocked(now time.Time) {
	if c.maxEntries <= 0 || len(c.entries) < c.maxEntries {
		return
	}

	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}

	for len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}

// Wipe removes every entry from both tiers. It is a no-op on a nil cache.
func (c *Cache) Wipe(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.logger.Info("cache wiped", zap.Int("entries", n))
	return c.deleteRemote(ctx, redisNamespace+"*")
}

// InvalidatePrefix removes entries whose key starts with prefix, typically an
// endpoint name. It returns the number of L1 entries removed; a nil cache removes nothing.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.Lock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()

	c.logger.Debug("cache prefix invalidated", zap.String("prefix", prefix), zap.Int("entries", removed))
	return removed, c.deleteRemote(ctx, redisNamespace+prefix+"*")
}

func (c *Cache) deleteRemote(ctx context.Context, pattern string) error {
	if c.rdb == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan redis keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete redis keys: %w", err)
	}
	return nil
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
	Redis   bool  `json:"redis"`
}

// Stats returns the current counters. A nil cache reports zeros.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n, Redis: c.rdb != nil}
}

// cleanupLoop periodically removes expired L1 entries.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for k, e := range c.entries {
				if e.expired(now) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
