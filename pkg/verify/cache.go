package verify

import (
	"sync"
	"time"
)

// resultCache is a TTL cache for by-id verification results. Only valid
// results are stored; failures always re-run the pipeline. Expired entries
// are dropped lazily on read.
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(credentialID string) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[credentialID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.invalidate(credentialID)
		return nil, false
	}

	out := entry.result
	if entry.result.TrustScore != nil {
		score := *entry.result.TrustScore
		out.TrustScore = &score
	}
	return &out, true
}

func (c *resultCache) put(credentialID string, res *Result) {
	if res == nil || !res.Valid {
		return
	}

	stored := *res
	stored.Cached = false
	if res.TrustScore != nil {
		score := *res.TrustScore
		stored.TrustScore = &score
	}

	c.mu.Lock()
	c.entries[credentialID] = cacheEntry{result: stored, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *resultCache) invalidate(credentialID string) {
	c.mu.Lock()
	delete(c.entries, credentialID)
	c.mu.Unlock()
}
