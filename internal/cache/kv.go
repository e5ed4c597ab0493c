// ABOUTME: Cache adapter over a remote key-value store such as Charm KV
// ABOUTME: Store errors are logged at debug level and reported as misses
package cache

import (
	"context"

	"github.com/harper/persona-chat/internal/charm"
	"go.uber.org/zap"
)

// KVStore is the subset of the charm client the cache needs
type KVStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

var _ KVStore = (*charm.Client)(nil)

// KV caches values in a KVStore
type KV struct {
	store  KVStore
	logger *zap.Logger
}

// NewKV wraps a KVStore as a Cache
func NewKV(store KVStore, logger *zap.Logger) *KV {
	return &KV{store: store, logger: logger}
}

// Get returns the stored value, treating any error as a miss
func (k *KV) Get(_ context.Context, key string) ([]byte, bool) {
	v, err := k.store.Get(key)
	if err != nil {
		k.logger.Debug("kv cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

// Set writes a value, ignoring failures
func (k *KV) Set(_ context.Context, key string, value []byte) {
	if err := k.store.Set(key, value); err != nil {
		k.logger.Debug("kv cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a key, ignoring failures
func (k *KV) Delete(_ context.Context, key string) {
	if err := k.store.Delete(key); err != nil {
		k.logger.Debug("kv cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the underlying store
func (k *KV) Close() error {
	return k.store.Close()
}
