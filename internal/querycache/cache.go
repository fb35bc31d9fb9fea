// Package querycache holds the results of list/aggregate reads under named
// keys so mutations can invalidate or optimistically rewrite them.
package querycache

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

type Key string

const (
	KeyLeadFunnel        Key = "leads_funil"
	KeyLeads             Key = "leads"
	KeyFunnelStages      Key = "funil_etapas"
	KeyDashboardMetrics  Key = "dashboard-metrics"
	KeySystemActivities  Key = "atividades-sistema"
	KeyVisits            Key = "visitas"
	KeyProposals         Key = "propostas"
	KeyCustomers         Key = "customers"
	KeyDashboardFunnel   Key = "funnel-data"
	KeyRecentInteraction Key = "recent-activities"
)

// ErrCancelled is returned to callers of a fetch that was cancelled while no
// cached value existed to fall back to.
var ErrCancelled = errors.New("query cancelled")

const maxEntries = 256

type entry struct {
	value    any
	storedAt time.Time
}

type flight struct {
	cancel    context.CancelFunc
	cancelled bool
}

// Cache is safe for concurrent use. Stored values are treated as immutable:
// Update must return a new value rather than mutating the old one.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache
	group   singleflight.Group

	mu          sync.Mutex
	generations map[Key]uint64
	flights     map[Key]*flight
}

func New(ttl time.Duration) *Cache {
	entries, err := lru.New(maxEntries)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Cache{
		ttl:         ttl,
		now:         time.Now,
		entries:     entries,
		generations: map[Key]uint64{},
		flights:     map[Key]*flight{},
	}
}

// Fetch returns the cached value for key while it is fresh, otherwise runs
// fn. Concurrent callers for the same key share a single run of fn.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.fresh(key); ok {
		return v, nil
	}

	res := c.group.DoChan(string(key), func() (any, error) {
		return c.run(ctx, key, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		return r.Val, r.Err
	}
}

func (c *Cache) run(ctx context.Context, key Key, fn func(ctx context.Context) (any, error)) (any, error) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	f := &flight{cancel: cancel}
	c.mu.Lock()
	gen := c.generations[key]
	c.flights[key] = f
	c.mu.Unlock()

	v, err := fn(runCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}

	if f.cancelled {
		if e, ok := c.entries.Peek(key); ok {
			return e.(entry).value, nil
		}
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, err
	}
	// the key was invalidated or rewritten while fn ran; hand the result
	// to this flight's callers without caching it
	if c.generations[key] == gen {
		c.entries.Add(key, entry{value: v, storedAt: c.now()})
	}
	return v, nil
}

func (c *Cache) fresh(key Key) (any, bool) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Cancel aborts the in-flight fetch for key. Its result is never stored.
func (c *Cache) Cancel(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpLocked(key)
	if f, ok := c.flights[key]; ok {
		f.cancelled = true
		f.cancel()
		delete(c.flights, key)
	}
}

// Snapshot returns the current cached value regardless of freshness
func (c *Cache) Snapshot(key Key) (any, bool) {
	raw, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	return raw.(entry).value, true
}

// Set stores v under key. A nil v removes the entry.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumpLocked(key)
	if v == nil {
		c.entries.Remove(key)
		return
	}
	c.entries.Add(key, entry{value: v, storedAt: c.now()})
}

// Update rewrites the cached value for key with fn. An absent entry stays
// absent and fn is not called.
func (c *Cache) Update(key Key, fn func(old any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries.Peek(key)
	if !ok {
		return false
	}
	c.bumpLocked(key)
	c.entries.Add(key, entry{value: fn(raw.(entry).value), storedAt: raw.(entry).storedAt})
	return true
}

// Invalidate drops the entries so the next Fetch reads through
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.bumpLocked(key)
		c.entries.Remove(key)
	}
}

func (c *Cache) bumpLocked(key Key) {
	c.generations[key]++
	c.group.Forget(string(key))
}

// Get is a typed Fetch
func Get[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}
