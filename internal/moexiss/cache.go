package moexiss

import (
	"container/list"
	"sync"
	"time"
)

// issCache is a combined LRU+TTL cache for idempotent ISS reads, keyed by
// (operation, normalized-args). Eviction happens either when an entry's TTL
// expires or, on size overflow, by recency — mirroring the expires_at
// comparison the teacher's internal/clientdata/repository.go applies to its
// on-disk cache tables, but kept in-memory here since the core has no
// persistence layer of its own.
type issCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxSize  int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

func newIssCache(ttl time.Duration, maxSize int) *issCache {
	return &issCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// get returns the cached value for key if present and not expired.
func (c *issCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// put inserts or refreshes a cache entry, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *issCache) put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	el := c.order.PushFront(entry)
	c.entries[key] = el

	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// purgeExpired drops every entry past its TTL. Intended to be run
// periodically by a scheduled janitor rather than on every lookup.
func (c *issCache) purgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	var next *list.Element
	for el := c.order.Front(); el != nil; el = next {
		next = el.Next()
		entry := el.Value.(*cacheEntry)
		if now.After(entry.expiresAt) {
			c.order.Remove(el)
			delete(c.entries, entry.key)
			removed++
		}
	}
	return removed
}

func (c *issCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
