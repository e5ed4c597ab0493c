// ABOUTME: Best-effort byte cache used in front of the checkpoint store
// ABOUTME: Every failure degrades to a miss; the cache is never a correctness dependency
package cache

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/charm"
	"github.com/harper/persona-chat/internal/config"
	"go.uber.org/zap"
)

// Cache stores opaque values by key. Implementations swallow their own
// errors: Get reports a miss and Set/Delete become no-ops.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
	Close() error
}

// New builds the cache named by cfg.Backend. A charm backend that cannot be
// opened falls back to the no-op cache with a warning.
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	logger = logger.Named("cache")

	switch cfg.Backend {
	case config.CacheMemory:
		return NewMemory(cfg.MaxItems, cfg.TTL)
	case config.CacheCharm:
		client, err := charm.NewClient(charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDB,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			logger.Warn("charm cache unavailable, continuing without cache", zap.Error(err))
			return Nop{}, nil
		}
		return NewKV(client, logger), nil
	case config.CacheNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop is a cache that never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte) {}

func (Nop) Delete(context.Context, string) {}

func (Nop) Close() error { return nil }
