package llm

import (
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/tally/internal/model"
)

// cacheEntry represents a cached classification.
type cacheEntry struct {
	expiry         time.Time
	classification model.Classification
}

// classificationCache is a thread-safe TTL cache of backend answers.
type classificationCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newClassificationCache creates a cache with the given TTL and starts a
// background sweep of expired entries.
func newClassificationCache(ttl time.Duration) *classificationCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	cache := &classificationCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.sweep(time.Minute)

	return cache
}

// cacheKey normalizes a description together with the candidate categories
// it was classified against. Adding a category changes the key.
func cacheKey(description string, categories []string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(description)), " ")
	return normalized + "\x00" + strings.Join(categories, "\x1f")
}

func (c *classificationCache) get(key string) (model.Classification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiry) {
		return model.Classification{}, false
	}
	return entry.classification, true
}

func (c *classificationCache) set(key string, classification model.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		classification: classification,
		expiry:         c.now().Add(c.ttl),
	}
}

func (c *classificationCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *classificationCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
		}
	}
}

func (c *classificationCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (c *classificationCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}
