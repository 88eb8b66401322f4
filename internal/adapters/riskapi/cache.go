package riskapi

import (
	"context"
	"sync"
	"time"

	"fraudshield/internal/core/phone"
)

// cache holds successful check results keyed by normalized phone.
// Only successes are stored; failures must retry upstream. Entries
// expire lazily on read plus a periodic sweep so an idle process does
// not hold stale history forever
type cache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[phone.Number]cacheEntry
}

type cacheEntry struct {
	res Result
	exp time.Time
}

func newCache(ttl time.Duration, now func() time.Time) *cache {
	return &cache{
		ttl: ttl,
		now: now,
		m:   make(map[phone.Number]cacheEntry),
	}
}

// get returns a live entry, deleting it on the spot if expired
func (c *cache) get(num phone.Number) (Result, bool) {
	c.mu.RLock()
	e, ok := c.m[num]
	c.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	// an entry is dead at exactly exp, not one tick later
	if !c.now().Before(e.exp) {
		c.mu.Lock()
		// recheck under write lock, a put may have raced the expiry
		if e2, ok2 := c.m[num]; ok2 && !c.now().Before(e2.exp) {
			delete(c.m, num)
		}
		c.mu.Unlock()
		return Result{}, false
	}
	return e.res, true
}

func (c *cache) put(num phone.Number, res Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[num] = cacheEntry{res: res, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// invalidate drops one number, used by manual re-checks
func (c *cache) invalidate(num phone.Number) {
	c.mu.Lock()
	delete(c.m, num)
	c.mu.Unlock()
}

// flush drops everything
func (c *cache) flush() {
	c.mu.Lock()
	c.m = make(map[phone.Number]cacheEntry)
	c.mu.Unlock()
}

func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// sweep evicts expired entries every interval until ctx is done
func (c *cache) sweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := c.now()
			c.mu.Lock()
			for k, e := range c.m {
				if !now.Before(e.exp) {
					delete(c.m, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
