package certval

import (
	"context"
	"sync"
	"time"

	"credlink/internal/domain"
	"credlink/internal/usecase"
)

// MemoryCache is the in-process validation cache. Reads take a shared
// lock so concurrent verifications of different chains never serialize on
// each other; entries expire strictly on their write-time TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     domain.ChainValidationResult
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, fingerprint string) (*domain.ChainValidationResult, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *MemoryCache) Put(ctx context.Context, fingerprint string, result domain.ChainValidationResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.entries[fingerprint] = memoryEntry{value: result, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
	return nil
}

var _ usecase.ValidationCache = (*MemoryCache)(nil)
