package danktable

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheCapacity is the number of tables a [Cache] holds when no
// capacity is configured. Capacity counts tables, not bytes; per-table
// memory use is unbounded.
const DefaultCacheCapacity = 100

type cacheEntry struct {
	path     string
	table    *Table
	storedAt time.Time
}

// Cache is a bounded, thread-safe table cache with strict
// least-recently-used eviction.
//
// Keys are table file paths; values are fully decoded tables. Both reads
// and writes count as access for recency. All mutation of the recency
// list happens under a single mutex; no operation on the cache can
// corrupt the ordering under concurrent use.
//
// The cache trusts its contents once populated: external modification of
// a cached file is never detected. Callers that change a file out-of-band
// must call [Cache.Invalidate] (or restart the process).
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front = most recently used
	items    map[string]*list.Element
}

// NewCache creates a cache bounded to capacity tables. A capacity <= 0
// uses [DefaultCacheCapacity].
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached table for path and marks it most recently used.
// The returned table must be treated as immutable; mutate a
// [Table.Clone] and [Cache.Put] it back.
func (c *Cache) Get(path string) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[path]
	if !ok {
		return nil, false
	}

	c.ll.MoveToFront(elem)

	return elem.Value.(*cacheEntry).table, true
}

// Put inserts or replaces the table for path and marks it most recently
// used. If this pushes occupancy over capacity, the least-recently-used
// entry is evicted.
func (c *Cache) Put(path string, t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[path]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.table = t
		entry.storedAt = time.Now()
		c.ll.MoveToFront(elem)

		return
	}

	elem := c.ll.PushFront(&cacheEntry{path: path, table: t, storedAt: time.Now()})
	c.items[path] = elem

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).path)
		}
	}
}

// Invalidate removes the entry for path, if any.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[path]
	if !ok {
		return
	}

	c.ll.Remove(elem)
	delete(c.items, path)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ll.Len()
}

// StoredAt returns when the entry for path was last populated. Does not
// count as access. Returns false if path is not cached.
func (c *Cache) StoredAt(path string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[path]
	if !ok {
		return time.Time{}, false
	}

	return elem.Value.(*cacheEntry).storedAt, true
}
