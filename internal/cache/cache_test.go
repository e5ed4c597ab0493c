// ABOUTME: Tests for the memory, kv, and no-op caches
// ABOUTME: Verifies copy semantics, miss-on-error, and backend selection
package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harper/persona-chat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(100, 0)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	value := []byte("snapshot")
	m.Set(ctx, "k", value)
	m.Wait()

	// Mutating the caller's slice does not change the cached copy
	value[0] = 'X'
	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "snapshot", string(got))

	m.Delete(ctx, "k")
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)

	_, ok = m.Get(ctx, "missing")
	assert.False(t, ok)
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.data[key], nil
}

func (f *fakeKV) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Close() error { return nil }

func TestKVCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	c := NewKV(store, zap.NewNop())

	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKVCacheErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	store.err = errors.New("connection refused")
	c := NewKV(store, zap.NewNop())

	assert.NotPanics(t, func() { c.Set(ctx, "k", []byte("v")) })
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.Delete(ctx, "k") })
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	c.Set(ctx, "k", []byte("v"))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Backend: config.CacheMemory, MaxItems: 10}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
	_ = c.Close()

	c, err = New(config.CacheConfig{Backend: config.CacheNone}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	_, err = New(config.CacheConfig{Backend: "redis"}, zap.NewNop())
	assert.Error(t, err)
}
