package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/mealtrack/backend/internal/domain"
)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
	Indexes    map[string]string
}

// MemoryCache is a thread-safe in-memory key-value store with TTL support and
// optional secondary indexes. One instance is opened per process and closed
// at shutdown; nothing in the callers depends on it being process-wide.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
	done  chan struct{}
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		done: make(chan struct{}),
	}

	// Cleanup goroutine removes expired entries every 10 minutes
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	if time.Now().After(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.SetIndexed(ctx, key, value, ttl, nil)
}

// SetIndexed stores a value and registers it under secondary index values,
// e.g. {"date": "2025-03-01"}, for later GetAllByIndex lookups.
func (c *MemoryCache) SetIndexed(ctx context.Context, key string, value interface{}, ttl time.Duration, indexes map[string]string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Serialize to JSON and back so stored values have a consistent shape
	// regardless of the concrete type that was passed in
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var storedValue interface{}
	if err := json.Unmarshal(jsonData, &storedValue); err != nil {
		return err
	}

	c.data[key] = cacheItem{
		Value:      storedValue,
		Expiration: time.Now().Add(ttl),
		Indexes:    indexes,
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}

	if time.Now().After(item.Expiration) {
		return false, nil
	}

	return true, nil
}

// GetAllByIndex returns every non-expired value whose index matches the given
// value. Keys without that index are skipped. Results are ordered by key so
// repeated calls stay deterministic.
func (c *MemoryCache) GetAllByIndex(ctx context.Context, index, value string) ([]interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	keys := make([]string, 0)
	for key, item := range c.data {
		if now.After(item.Expiration) {
			continue
		}
		if item.Indexes != nil && item.Indexes[index] == value {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		values = append(values, c.data[key].Value)
	}
	return values, nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for key, item := range c.data {
				if now.After(item.Expiration) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() {
	close(c.done)
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
