package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

// Entry is a loaded dataset together with the key it was loaded for and the
// time the load completed.
type Entry struct {
	Key      string
	Dataset  *dataset.Dataset
	LoadedAt time.Time
}

// LoadFunc produces a fresh dataset for a key.
type LoadFunc func(ctx context.Context) (*dataset.Dataset, error)

// Cache is a single-entry, wall-clock TTL cache for the loaded dataset.
//
// Reads of a fresh entry only take the read lock. Population goes through a
// singleflight group keyed by the source key so concurrent misses share one
// fetch. A failed load never replaces or extends the held entry.
type Cache struct {
	mu    sync.RWMutex
	entry *Entry
	ttl   time.Duration
	now   func() time.Time // injectable for deterministic tests

	group singleflight.Group
}

// New creates a Cache with the given TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// NewWithClock creates a Cache that reads time from now.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{ttl: ttl, now: now}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// SetTTL changes the time-to-live. It applies to the held entry as well.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Get returns the held entry when it belongs to key and has not expired.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.freshLocked(key)
}

// Peek returns the held entry regardless of key or age.
func (c *Cache) Peek() (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entry, c.entry != nil
}

// GetOrLoad returns the fresh entry for key, or calls load to populate it.
// hit reports whether the entry was served without calling load.
//
// The shared load runs detached from ctx's cancellation, so one caller going
// away does not fail the others waiting on the same flight. A cancelled
// caller still returns as soon as its own ctx is done.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load LoadFunc) (e *Entry, hit bool, err error) {
	if e, ok := c.Get(key); ok {
		return e, true, nil
	}
	loadCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another flight may have populated the entry while we waited.
		if e, ok := c.Get(key); ok {
			return e, nil
		}
		ds, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		e := &Entry{Key: key, Dataset: ds, LoadedAt: c.now()}
		c.mu.Lock()
		c.entry = e
		c.mu.Unlock()
		return e, nil
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	if res.Err != nil {
		return nil, false, res.Err
	}
	if res.Shared {
		slog.Debug("cache: shared in-flight load", "key", key)
	}
	return res.Val.(*Entry), false, nil
}

// Invalidate drops the held entry so the next GetOrLoad fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

// Age returns how long ago the held entry was loaded.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return 0, false
	}
	return c.now().Sub(c.entry.LoadedAt), true
}

func (c *Cache) freshLocked(key string) (*Entry, bool) {
	e := c.entry
	if e == nil || e.Key != key {
		return nil, false
	}
	if c.now().Sub(e.LoadedAt) >= c.ttl {
		return nil, false
	}
	return e, true
}
