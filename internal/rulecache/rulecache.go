// Package rulecache implements C5: a bounded, TTL-governed in-process cache
// of resolved rule sets, read-through-wrapped by internal/provider (C6).
package rulecache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/OpenFluxGate/fluxgate-sub000/rule"
)

// Stats are the counters spec §4.4 asks C5 to optionally expose.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is a thread-safe ruleSetId -> *rule.RuleSet cache with a maximum
// entry count (LRU-evicted) and a per-write TTL.
type Cache struct {
	lru *lru.LRU[string, *rule.RuleSet]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New builds a Cache holding at most maxSize entries, each expiring ttl
// after it was last written.
func New(maxSize int, ttl time.Duration) *Cache {
	c := &Cache{}
	c.lru = lru.NewLRU[string, *rule.RuleSet](maxSize, func(_ string, _ *rule.RuleSet) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

// Get probes the cache for ruleSetID.
func (c *Cache) Get(ruleSetID string) (*rule.RuleSet, bool) {
	rs, ok := c.lru.Get(ruleSetID)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return rs, ok
}

// Set inserts rs under ruleSetID with the cache's configured TTL. Per spec
// §4.4 step 3, C6 only calls this with a non-empty resolved rule set.
func (c *Cache) Set(ruleSetID string, rs *rule.RuleSet) {
	c.lru.Add(ruleSetID, rs)
}

// Evict removes one entry, used when C7 emits a per-rule-set reload event.
func (c *Cache) Evict(ruleSetID string) {
	c.lru.Remove(ruleSetID)
}

// Clear empties the cache, used on a full-reload event.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Snapshot returns every currently cached rule-set id, used by C7 Polling
// to know which ids to re-fingerprint.
func (c *Cache) Snapshot() []string {
	return c.lru.Keys()
}

// Stats returns a point-in-time copy of the hit/miss/eviction counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
