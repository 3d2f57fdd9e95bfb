package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"wellsync/internal/clock"
	"wellsync/internal/infrastructure/metrics"
	"wellsync/internal/types"
)

const DefaultTTL = 5 * time.Minute

// LoadFunc recomputes the series for a window on a miss
type LoadFunc func(ctx context.Context, days int) []types.UsageRecord

type Options struct {
	TTL time.Duration
	// PerKeyTTL tracks staleness per window. When false a single write timestamp is
	// shared by all keys, so a write for one window refreshes every other window too.
	PerKeyTTL bool
}

// UsageCache memoizes normalized series keyed by the requested day count. In-memory only.
type UsageCache struct {
	mu        sync.Mutex
	entries   map[int][]types.UsageRecord
	lastWrite time.Time
	keyWrites map[int]time.Time

	ttl     time.Duration
	perKey  bool
	clock   clock.Clock
	group   singleflight.Group
	metrics *metrics.Metrics
}

// New creates an empty usage cache; a non-positive TTL uses DefaultTTL
func New(c clock.Clock, m *metrics.Metrics, opts Options) *UsageCache {
	if c == nil {
		c = clock.New()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UsageCache{
		entries:   make(map[int][]types.UsageRecord),
		keyWrites: make(map[int]time.Time),
		ttl:       ttl,
		perKey:    opts.PerKeyTTL,
		clock:     c,
		metrics:   m,
	}
}

// Get returns the cached series for days while fresh, otherwise runs load and stores its result.
// Concurrent misses for the same window share one load.
func (c *UsageCache) Get(ctx context.Context, days int, load LoadFunc) []types.UsageRecord {
	if records, ok := c.lookup(days); ok {
		c.metrics.CacheHit()
		return records
	}
	c.metrics.CacheMiss()

	v, _, _ := c.group.Do(strconv.Itoa(days), func() (interface{}, error) {
		records := load(ctx, days)
		c.store(days, records)
		return records, nil
	})
	return v.([]types.UsageRecord)
}

// Invalidate drops every entry and resets the write timestamps
func (c *UsageCache) Invalidate() {
	c.mu.Lock()
	for days := range c.entries {
		c.group.Forget(strconv.Itoa(days))
	}
	c.entries = make(map[int][]types.UsageRecord)
	c.keyWrites = make(map[int]time.Time)
	c.lastWrite = time.Time{}
	c.mu.Unlock()

	c.metrics.CacheInvalidated()
}

// ForceRefresh invalidates every window, then loads and caches this one
func (c *UsageCache) ForceRefresh(ctx context.Context, days int, load LoadFunc) []types.UsageRecord {
	c.Invalidate()
	return c.Get(ctx, days, load)
}

// Len reports the number of cached windows, fresh or not
func (c *UsageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the configured time to live
func (c *UsageCache) TTL() time.Duration {
	return c.ttl
}

func (c *UsageCache) lookup(days int) ([]types.UsageRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, ok := c.entries[days]
	if !ok {
		return nil, false
	}
	written := c.lastWrite
	if c.perKey {
		written = c.keyWrites[days]
	}
	if c.clock.Now().Sub(written) >= c.ttl {
		return nil, false
	}
	return records, true
}

func (c *UsageCache) store(days int, records []types.UsageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.entries[days] = records
	c.keyWrites[days] = now
	c.lastWrite = now
}
