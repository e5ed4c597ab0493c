// ABOUTME: Checkpoint component: serializes snapshots and persists them append-only
// ABOUTME: Reads go through a best-effort cache that can never fail a turn
package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/persona-chat/internal/cache"
	"github.com/harper/persona-chat/internal/charm"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/storage"
	"go.uber.org/zap"
)

// Checkpointer saves and loads per-thread conversation snapshots
type Checkpointer struct {
	store     storage.CheckpointStore
	cache     cache.Cache
	retention int
	logger    *zap.Logger
}

// NewCheckpointer creates a Checkpointer. retention > 0 prunes older
// checkpoints after each save; a nil cache disables caching.
func NewCheckpointer(store storage.CheckpointStore, c cache.Cache, retention int, logger *zap.Logger) *Checkpointer {
	if c == nil {
		c = cache.Nop{}
	}
	return &Checkpointer{
		store:     store,
		cache:     c,
		retention: retention,
		logger:    logger.Named("checkpointer"),
	}
}

// Save appends a snapshot for its thread and refreshes the cache
func (c *Checkpointer) Save(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || snap.ThreadID == "" {
		return fmt.Errorf("%w: snapshot needs a thread id", models.ErrValidation)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if _, err := c.store.SaveCheckpoint(ctx, snap.ThreadID, data); err != nil {
		// The previous checkpoint is still the newest row, so drop any cached copy
		// that might not match it
		c.cache.Delete(ctx, charm.CheckpointKey(snap.ThreadID))
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	c.cache.Set(ctx, charm.CheckpointKey(snap.ThreadID), data)

	if c.retention > 0 {
		removed, err := c.store.PruneCheckpoints(ctx, snap.ThreadID, c.retention)
		if err != nil {
			c.logger.Warn("failed to prune checkpoints", zap.String("thread_id", snap.ThreadID), zap.Error(err))
		} else if removed > 0 {
			c.logger.Debug("pruned checkpoints", zap.String("thread_id", snap.ThreadID), zap.Int64("removed", removed))
		}
	}
	return nil
}

// LoadLatest returns the newest snapshot for a thread, or nil when none exists
func (c *Checkpointer) LoadLatest(ctx context.Context, threadID string) (*models.Snapshot, error) {
	key := charm.CheckpointKey(threadID)

	if data, ok := c.cache.Get(ctx, key); ok {
		var snap models.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		c.logger.Debug("discarding undecodable cached snapshot", zap.String("thread_id", threadID))
		c.cache.Delete(ctx, key)
	}

	cp, err := c.store.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if cp == nil {
		return nil, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(cp.State, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", cp.CheckpointID, err)
	}
	c.cache.Set(ctx, key, cp.State)
	return &snap, nil
}
