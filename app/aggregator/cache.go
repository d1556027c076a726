package aggregator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = 300 * time.Second
	// CycleTimeout bounds one shared pipeline run.
	CycleTimeout = 2 * time.Minute

	flightKey = "aggregation"
)

type RunFunc func(ctx context.Context) (*Result, error)

type entry struct {
	result   *Result
	storedAt time.Time
}

// Cache memoizes the latest aggregation for a TTL. At most one pipeline run
// is in flight; callers arriving during a refresh wait for it and share its
// result or error. A failed refresh keeps the previous entry.
type Cache struct {
	run     RunFunc
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	entry *entry

	group singleflight.Group
}

func NewCache(run RunFunc, ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		run:     run,
		ttl:     ttl,
		timeout: CycleTimeout,
		now:     now,
	}
}

// Get returns the cached result while it is fresh, otherwise runs (or joins)
// a refresh.
func (c *Cache) Get(ctx context.Context) (*Result, error) {
	if result, ok := c.fresh(); ok {
		return result, nil
	}
	return c.refresh(ctx, false)
}

// Refresh runs the pipeline regardless of the entry's age.
func (c *Cache) Refresh(ctx context.Context) (*Result, error) {
	return c.refresh(ctx, true)
}

// Age reports how long ago the current entry was stored. ok is false before
// the first successful aggregation.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil {
		return 0, false
	}
	return c.now().Sub(c.entry.storedAt), true
}

func (c *Cache) fresh() (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.entry == nil || c.now().Sub(c.entry.storedAt) >= c.ttl {
		return nil, false
	}
	return c.entry.result, true
}

func (c *Cache) refresh(ctx context.Context, force bool) (*Result, error) {
	ch := c.group.DoChan(flightKey, func() (any, error) {
		// A flight that finished just before this one started may already
		// have stored a fresh entry.
		if !force {
			if result, ok := c.fresh(); ok {
				return result, nil
			}
		}

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		result, err := c.run(runCtx)
		if err != nil {
			return nil, err
		}

		c.store(result)
		return result, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) store(result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry = &entry{result: result, storedAt: c.now()}
}
