package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mirumee/avatax-excise/internal/domain/tax"
)

// entry represents a cached calculation with expiration
type entry struct {
	result      *tax.CalculationResult
	fingerprint string
	expiresAt   time.Time
}

// InMemoryResponseCache implements tax.ResponseCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryResponseCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryResponseCache creates a new in-memory response cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryResponseCache() *InMemoryResponseCache {
	cache := &InMemoryResponseCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached calculation and its request fingerprint for a token
func (c *InMemoryResponseCache) Get(_ context.Context, token string) (*tax.CalculationResult, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[token]
	if !exists {
		return nil, "", false
	}

	// Expired entries are treated as misses
	if time.Now().After(e.expiresAt) {
		return nil, "", false
	}

	return e.result, e.fingerprint, true
}

// Set stores a calculation under token together with its request fingerprint
func (c *InMemoryResponseCache) Set(_ context.Context, token string, fingerprint string, result *tax.CalculationResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = entry{
		result:      result,
		fingerprint: fingerprint,
		expiresAt:   time.Now().Add(ttl),
	}

	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (c *InMemoryResponseCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryResponseCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryResponseCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, token)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryResponseCache implements ResponseCache
var _ tax.ResponseCache = (*InMemoryResponseCache)(nil)
