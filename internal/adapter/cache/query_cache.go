package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"loanrag/internal/domain"
)

// QueryCache is an LRU cache of ranked results with a TTL. Entries belong to
// one build; switching builds drops them.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	buildID string
}

type cacheEntry struct {
	results   []domain.RankedResult
	timestamp time.Time
	buildID   string
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, topK int) string {
	data := []byte(query)
	data = append(data, 0, byte(topK>>24), byte(topK>>16), byte(topK>>8), byte(topK))
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns a copy of the cached results for (query, topK).
func (c *QueryCache) Get(query string, topK int) ([]domain.RankedResult, bool) {
	key := cacheKey(query, topK)

	c.mu.RLock()
	entry, exists := c.entries[key]
	current := c.buildID
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.buildID != current {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return clone(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.RankedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:   clone(results),
		timestamp: time.Now(),
		buildID:   c.buildID,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

// SetBuild scopes the cache to a build. Changing it empties the cache.
func (c *QueryCache) SetBuild(buildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if buildID == c.buildID {
		return
	}
	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.buildID = buildID
}

func (c *QueryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *QueryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func clone(results []domain.RankedResult) []domain.RankedResult {
	if results == nil {
		return nil
	}
	out := make([]domain.RankedResult, len(results))
	copy(out, results)
	return out
}
