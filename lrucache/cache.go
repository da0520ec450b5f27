/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidMaxEntries is returned by New when the passed maximum number of entries is not positive.
var ErrInvalidMaxEntries = errors.New("maxEntries must be greater than 0")

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache represents a fixed-capacity LRU cache with hit/miss accounting and Prometheus metrics.
//
// All methods are safe for concurrent use by multiple goroutines.
// Every operation is a single critical section: mutating calls (including Get,
// which promotes the found entry and updates the counters) hold an exclusive lock
// for their whole duration, pure membership and statistics reads hold a shared one.
// Concurrent calls on the same cache are therefore linearizable, and no call
// observes a state partway through another call's mutation.
type LRUCache[K comparable, V any] struct {
	maxEntries int

	mu      sync.RWMutex
	lruList *list.List          // front is the most recently used entry
	cache   map[K]*list.Element // map of cache entries, value is a lruList element
	hits    uint64
	misses  uint64

	loadGroup flightGroup[K, V]

	metricsCollector MetricsCollector
}

// New creates a new LRUCache with the provided maximum number of entries and metrics collector.
// The maximum number of entries is fixed for the lifetime of the cache.
// Metrics collector is used to collect statistics about cache usage.
// It can be nil, in this case, metrics will be disabled.
func New[K comparable, V any](maxEntries int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidMaxEntries
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}

	return &LRUCache[K, V]{
		maxEntries:       maxEntries,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element),
		metricsCollector: metricsCollector,
	}, nil
}

// NewWithConfig creates a new LRUCache from the provided configuration.
func NewWithConfig[K comparable, V any](cfg *Config, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New[K, V](cfg.MaxEntries, metricsCollector)
}

// Get returns a value from the cache by the provided key and promotes the found entry
// to the most recently used position. The second return value reports whether the key
// was found; both outcomes are counted in the hit/miss statistics.
// The returned value is a snapshot: a later Add for the same key does not change
// values that already left the cache.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Contains reports whether the key is present in the cache.
// Unlike Get, it does not promote the entry and does not affect hit/miss statistics:
// presence checking is a peek, not a touch.
func (c *LRUCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cache[key]
	return ok
}

// Add adds a value to the cache with the provided key.
// If the key is already present, its value is replaced and the entry is promoted
// to the most recently used position; hit/miss statistics are not affected.
// If the insertion exceeds the maximum number of entries, the least recently used
// entry is evicted within the same critical section, so the size never stays
// above the maximum between calls.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		elem.Value.(*cacheEntry[K, V]).value = value
		c.lruList.MoveToFront(elem)
		return
	}
	c.addNew(key, value)
}

// GetOrAdd returns a value from the cache by the provided key.
// If the key does not exist, it adds a new value produced by valueProvider to the cache.
func (c *LRUCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, exists = c.get(key); exists {
		return value, exists
	}
	value = valueProvider()
	c.addNew(key, value)
	return value, false
}

// GetOrLoad returns a value from the cache by the provided key, loading it on miss.
// Concurrent loads for the same key are collapsed into a single loader call:
// duplicate callers wait for the original call to complete and receive the same result.
// A successfully loaded value is added to the cache; a failed load caches nothing,
// and the loader's error is returned as is.
func (c *LRUCache[K, V]) GetOrLoad(key K, loader func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	return c.loadGroup.Do(key, func() (V, error) {
		value, err := loader()
		if err != nil {
			return value, err
		}
		c.Add(key, value)
		return value, nil
	})
}

// Remove removes a value from the cache by the provided key and reports whether
// the key was present. Removing an absent key is a no-op.
// Hit/miss statistics are not affected.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}

	c.lruList.Remove(elem)
	delete(c.cache, key)
	c.metricsCollector.SetAmount(len(c.cache))
	return true
}

// Purge clears the cache.
// Removed entries are not counted as evictions, and hit/miss statistics are kept.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsCollector.SetAmount(0)
	c.cache = make(map[K]*list.Element)
	c.lruList.Init()
}

// Len returns the number of entries in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *LRUCache[K, V]) Capacity() int {
	return c.maxEntries
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	elem, hit := c.cache[key]
	if !hit {
		c.misses++
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.hits++
	c.metricsCollector.IncHits()
	return elem.Value.(*cacheEntry[K, V]).value, true
}

func (c *LRUCache[K, V]) addNew(key K, value V) {
	c.cache[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value})
	if len(c.cache) <= c.maxEntries {
		c.metricsCollector.SetAmount(len(c.cache))
		return
	}
	// A single insertion can exceed the maximum by at most one entry.
	if evictedEntry := c.removeOldest(); evictedEntry != nil {
		c.metricsCollector.AddEvictions(1)
	}
}

func (c *LRUCache[K, V]) removeOldest() *cacheEntry[K, V] {
	elem := c.lruList.Back()
	if elem == nil {
		return nil
	}
	c.lruList.Remove(elem)
	entry := elem.Value.(*cacheEntry[K, V])
	delete(c.cache, entry.key)
	return entry
}

// checkConsistency verifies that the key index and the recency list describe
// the same set of entries. Used by tests.
func (c *LRUCache[K, V]) checkConsistency() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.cache) != c.lruList.Len() {
		return fmt.Errorf("key index has %d entries, recency list has %d", len(c.cache), c.lruList.Len())
	}
	if len(c.cache) > c.maxEntries {
		return fmt.Errorf("cache holds %d entries, maximum is %d", len(c.cache), c.maxEntries)
	}
	visited := 0
	for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry[K, V])
		indexed, ok := c.cache[entry.key]
		if !ok {
			return fmt.Errorf("list node %v is missing from the key index", entry.key)
		}
		if indexed != elem {
			return fmt.Errorf("key index resolves %v to a different list node", entry.key)
		}
		visited++
		if visited > c.lruList.Len() {
			return fmt.Errorf("recency list walk did not terminate after %d nodes", c.lruList.Len())
		}
	}
	if visited != len(c.cache) {
		return fmt.Errorf("recency list walk visited %d nodes, key index has %d", visited, len(c.cache))
	}
	return nil
}
