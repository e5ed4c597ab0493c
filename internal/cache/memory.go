// ABOUTME: In-process cache backed by ristretto
// ABOUTME: Each entry costs one unit, so MaxCost bounds the number of entries
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Memory is an in-process cache
type Memory struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewMemory creates a cache holding up to maxItems entries; ttl <= 0 means entries never expire
func NewMemory(maxItems int64, ttl time.Duration) (*Memory, error) {
	if maxItems <= 0 {
		maxItems = 10000
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Memory{cache: c, ttl: ttl}, nil
}

// Get returns a copy of the cached value
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Set stores a copy of value. Writes are buffered and become visible
// shortly after; callers needing read-your-write must call Wait.
func (m *Memory) Set(_ context.Context, key string, value []byte) {
	v := append([]byte(nil), value...)
	if m.ttl > 0 {
		m.cache.SetWithTTL(key, v, 1, m.ttl)
		return
	}
	m.cache.Set(key, v, 1)
}

// Delete removes a key
func (m *Memory) Delete(_ context.Context, key string) {
	m.cache.Del(key)
}

// Wait blocks until buffered writes are applied
func (m *Memory) Wait() {
	m.cache.Wait()
}

// Close stops the cache's background goroutines
func (m *Memory) Close() error {
	m.cache.Close()
	return nil
}
