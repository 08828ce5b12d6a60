package concept

import (
	"container/list"
	"fmt"
	"sync"
)

const defaultCacheSize = 1000

// cacheEntry holds a resolution outcome. Misses are cached too: Concept is
// nil for a word known not to resolve.
type cacheEntry struct {
	key     string
	concept *Concept
}

// CacheStats holds resolution cache counters.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// resolutionCache is a fixed-capacity LRU keyed by (policy, word). Safe for
// concurrent use.
type resolutionCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // most recent at the front
	maxSize int
	stats   CacheStats
}

func newResolutionCache(maxSize int) *resolutionCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &resolutionCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

func cacheKey(policy ResolutionPolicy, word string) string {
	if policy.Mode == ResolveFuzzy {
		return fmt.Sprintf("%s:%.3f:%s", policy.Mode, policy.FuzzyThreshold, word)
	}
	return string(policy.Mode) + "::" + word
}

// get returns (concept, true) on a cache hit; concept may be nil for a
// cached miss.
func (c *resolutionCache) get(key string) (*Concept, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).concept, true
}

func (c *resolutionCache) set(key string, concept *Concept) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).concept = concept
		c.order.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.stats.Evictions++
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, concept: concept})
}

// Stats returns a snapshot of the cache counters.
func (c *resolutionCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}
