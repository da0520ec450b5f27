/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

// Stats is a snapshot of the cache hit/miss counters.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Stats returns a snapshot of the hit/miss counters.
func (c *LRUCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

// HitRatio returns hits / (hits + misses), or 0 if the cache has not been accessed yet.
func (c *LRUCache[K, V]) HitRatio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// ResetStats zeroes the hit/miss counters. Cache contents are not affected.
func (c *LRUCache[K, V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}
