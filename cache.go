package curves

import (
	"container/list"
	"sync"
)

// PlanCache is an LRU cache of compiled plans keyed by expression text. All
// expressions in one cache are parsed with the same options. Only successful
// compilations are cached.
//
// A PlanCache is safe for concurrent use.
type PlanCache struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List
	items map[string]*list.Element
	opts  []ParseOption

	hits, misses uint64
}

type cacheEntry struct {
	src  string
	plan *Plan
}

// NewPlanCache creates a cache holding up to capacity plans compiled with the
// given parse options. A capacity less than 1 means 256.
func NewPlanCache(capacity int, opts ...ParseOption) *PlanCache {
	if capacity < 1 {
		capacity = 256
	}
	return &PlanCache{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		opts:  opts,
	}
}

// Plan returns the compiled plan for src, compiling it if it is not cached.
func (c *PlanCache) Plan(src string) (*Plan, error) {
	c.mu.Lock()
	if el, ok := c.items[src]; ok {
		c.ll.MoveToFront(el)
		c.hits++
		c.mu.Unlock()
		return el.Value.(*cacheEntry).plan, nil
	}
	c.misses++
	c.mu.Unlock()

	// Compile outside the lock. Concurrent misses on one key may both compile;
	// the plans are equivalent, so the last one stored wins.
	p, err := CompileString(src, c.opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[src]; ok {
		el.Value.(*cacheEntry).plan = p
		c.ll.MoveToFront(el)
		return p, nil
	}
	if c.ll.Len() >= c.cap {
		old := c.ll.Back()
		c.ll.Remove(old)
		delete(c.items, old.Value.(*cacheEntry).src)
		lg := logger()
		lg.Debug().Str("expr", old.Value.(*cacheEntry).src).Msg("evicted plan")
	}
	c.items[src] = c.ll.PushFront(&cacheEntry{src: src, plan: p})
	return p, nil
}

// GeneratePoints is like the package-level GeneratePoints, but takes the plan
// from the cache.
func (c *PlanCache) GeneratePoints(expr string, tMin, tMax float64, steps int, m Mapping) (*Result, error) {
	r := SampleRange{TMin: tMin, TMax: tMax, Steps: steps}
	if err := check(r, m); err != nil {
		return nil, err
	}
	p, err := c.Plan(expr)
	if err != nil {
		return nil, err
	}
	return Sample(p, r, m)
}

// Len returns the number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns the number of lookups that found a cached plan and the number
// that did not.
func (c *PlanCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear removes all cached plans.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
}
