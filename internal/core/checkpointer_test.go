// ABOUTME: Tests for snapshot checkpointing through the cache and the store
// ABOUTME: Covers round trips, cache hits, invalidation on failure, and retention
package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/harper/persona-chat/internal/cache"
	"github.com/harper/persona-chat/internal/charm"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/harper/persona-chat/internal/storage"
	"github.com/harper/persona-chat/internal/storage/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingCheckpoints wraps a store to count reads and inject save failures.
// With failSave set only that save (1-based) returns saveErr.
type countingCheckpoints struct {
	storage.CheckpointStore
	saveErr  error
	failSave int32
	saves    atomic.Int32
	latest   atomic.Int32
}

func (c *countingCheckpoints) SaveCheckpoint(ctx context.Context, threadID string, state []byte) (*models.Checkpoint, error) {
	n := c.saves.Add(1)
	if c.saveErr != nil && (c.failSave == 0 || c.failSave == n) {
		return nil, c.saveErr
	}
	return c.CheckpointStore.SaveCheckpoint(ctx, threadID, state)
}

func (c *countingCheckpoints) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	c.latest.Add(1)
	return c.CheckpointStore.LatestCheckpoint(ctx, threadID)
}

func newTestMemoryCache(t *testing.T) *cache.Memory {
	t.Helper()
	m, err := cache.NewMemory(100, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func newThread(t *testing.T, s *sqldb.Storage) *models.Thread {
	t.Helper()
	thread, err := s.CreateThread(context.Background(), "alice", persona.Mentor)
	require.NoError(t, err)
	return thread
}

func sampleSnapshot(thread *models.Thread, turns int) *models.Snapshot {
	snap := &models.Snapshot{
		CurrentPersona: thread.Persona,
		ThreadID:       thread.ThreadID,
		UserID:         thread.UserID,
		Metadata:       map[string]any{"scenario": string(models.ThreadContinuation), "error_notice": false},
	}
	for i := 0; i < turns; i++ {
		snap.Messages = append(snap.Messages,
			models.ChatMessage{Role: models.RoleUser, Content: "question"},
			models.ChatMessage{Role: models.RoleAssistant, Content: "answer"},
		)
	}
	return snap
}

func TestCheckpointerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	cp := NewCheckpointer(s, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	none, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Nil(t, none)

	want := sampleSnapshot(thread, 2)
	require.NoError(t, cp.Save(ctx, want))

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckpointerLatestWins(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	cp := NewCheckpointer(s, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	for turns := 1; turns <= 3; turns++ {
		require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, turns)))
	}

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 6)
}

func TestCheckpointerServesFromCache(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	store := &countingCheckpoints{CheckpointStore: s}
	mem := newTestMemoryCache(t)
	cp := NewCheckpointer(store, mem, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, 1)))
	mem.Wait()

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(0), store.latest.Load())
}

func TestCheckpointerFallsBackOnCacheMiss(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	store := &countingCheckpoints{CheckpointStore: s}
	cp := NewCheckpointer(store, cache.Nop{}, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, 1)))

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int32(1), store.latest.Load())
}

func TestCheckpointerDiscardsCorruptCacheEntry(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	mem := newTestMemoryCache(t)
	cp := NewCheckpointer(s, mem, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, 1)))
	mem.Set(ctx, charm.CheckpointKey(thread.ThreadID), []byte("{not json"))
	mem.Wait()

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 2)
}

func TestCheckpointerSaveFailureInvalidatesCache(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	store := &countingCheckpoints{CheckpointStore: s}
	mem := newTestMemoryCache(t)
	cp := NewCheckpointer(store, mem, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, 1)))
	mem.Wait()

	store.saveErr = errors.New("disk full")
	err := cp.Save(ctx, sampleSnapshot(thread, 2))
	require.Error(t, err)
	mem.Wait()

	_, cached := mem.Get(ctx, charm.CheckpointKey(thread.ThreadID))
	assert.False(t, cached)

	// The store still has the first checkpoint
	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
}

func TestCheckpointerRetention(t *testing.T) {
	s := newTestStore(t)
	thread := newThread(t, s)
	cp := NewCheckpointer(s, nil, 2, zaptest.NewLogger(t))
	ctx := context.Background()

	for turns := 1; turns <= 5; turns++ {
		require.NoError(t, cp.Save(ctx, sampleSnapshot(thread, turns)))
	}

	var count int
	require.NoError(t, s.DB().Conn().Get(&count, "SELECT COUNT(*) FROM checkpoints"))
	assert.Equal(t, 2, count)

	got, err := cp.LoadLatest(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 10)
}

func TestCheckpointerRejectsMissingThread(t *testing.T) {
	cp := NewCheckpointer(newTestStore(t), nil, 0, zaptest.NewLogger(t))

	err := cp.Save(context.Background(), &models.Snapshot{})
	assert.True(t, models.IsValidation(err))
}
