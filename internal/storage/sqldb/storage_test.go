// ABOUTME: Tests for the sqlite-backed stores against an in-memory database
// ABOUTME: Covers idempotent users, thread ordering, message order, and checkpoints
package sqldb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorageInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSchemaInitialization(t *testing.T) {
	s := newTestStorage(t)

	for _, table := range []string{"users", "threads", "messages", "checkpoints"} {
		var name string
		err := s.DB().Conn().Get(&name, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		assert.NoError(t, err, "table %s does not exist", table)
	}

	// Migrating twice is harmless
	require.NoError(t, s.DB().Migrate(context.Background()))
}

func TestCreateUserIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.CreateUser(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := s.CreateUser(ctx, "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, models.CanonicalID("alice@example.com"), first.UserID)

	var count int
	require.NoError(t, s.DB().Conn().Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)
}

func TestCreateUserConcurrent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(ctx, "bob")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUser(context.Background(), "nobody")
	assert.True(t, models.IsNotFound(err))

	_, err = s.GetUser(context.Background(), "")
	assert.True(t, models.IsValidation(err))
}

func TestCreateThreadCreatesUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	thread, err := s.CreateThread(ctx, "carol", persona.Investor)
	require.NoError(t, err)

	assert.True(t, models.IsCanonicalID(thread.ThreadID))
	assert.Equal(t, models.CanonicalID("carol"), thread.UserID)
	assert.Equal(t, persona.Investor, thread.Persona)
	assert.True(t, thread.CreatedAt.Equal(thread.UpdatedAt))

	user, err := s.GetUser(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, thread.UserID, user.UserID)
}

func TestCreateThreadRejectsUnknownPersona(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.CreateThread(context.Background(), "carol", "pirate")
	assert.True(t, models.IsValidation(err))
}

func TestGetThread(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	created, err := s.CreateThread(ctx, "dave", persona.Mentor)
	require.NoError(t, err)

	got, err := s.GetThread(ctx, created.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, created.ThreadID, got.ThreadID)
	assert.Equal(t, persona.Mentor, got.Persona)

	// Uppercase form of the same uuid resolves to the same row
	got, err = s.GetThread(ctx, strings.ToUpper(created.ThreadID))
	require.NoError(t, err)
	assert.Equal(t, created.ThreadID, got.ThreadID)

	_, err = s.GetThread(ctx, models.NewID())
	assert.True(t, models.IsNotFound(err))

	_, err = s.GetThread(ctx, "not-a-uuid")
	assert.True(t, models.IsNotFound(err))
}

func TestListThreadsOrderedByUpdatedAt(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	t1, err := s.CreateThread(ctx, "erin", persona.Investor)
	require.NoError(t, err)
	t2, err := s.CreateThread(ctx, "erin", persona.Mentor)
	require.NoError(t, err)
	_, err = s.CreateThread(ctx, "frank", persona.Mentor)
	require.NoError(t, err)

	threads, err := s.ListThreads(ctx, "erin")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, t2.ThreadID, threads[0].ThreadID)
	assert.Equal(t, t1.ThreadID, threads[1].ThreadID)

	// Touching t1 moves it to the front
	require.NoError(t, s.UpdateThreadPersona(ctx, t1.ThreadID, persona.Investor))
	threads, err = s.ListThreads(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, t1.ThreadID, threads[0].ThreadID)

	empty, err := s.ListThreads(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateThreadPersona(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	thread, err := s.CreateThread(ctx, "gina", persona.Mentor)
	require.NoError(t, err)

	require.NoError(t, s.UpdateThreadPersona(ctx, thread.ThreadID, persona.TechnicalAdvisor))
	got, err := s.GetThread(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, persona.TechnicalAdvisor, got.Persona)
	assert.True(t, got.UpdatedAt.After(thread.UpdatedAt))

	err = s.UpdateThreadPersona(ctx, thread.ThreadID, "pirate")
	assert.True(t, models.IsValidation(err))

	err = s.UpdateThreadPersona(ctx, models.NewID(), persona.Mentor)
	assert.True(t, models.IsNotFound(err))
}

func TestMessagesRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	thread, err := s.CreateThread(ctx, "hank", persona.BusinessExpert)
	require.NoError(t, err)

	want := []models.ChatMessage{
		{Role: models.RoleUser, Content: "How should I price this?"},
		{Role: models.RoleAssistant, Content: "Start from value delivered."},
		{Role: models.RoleUser, Content: "And discounts?"},
		{Role: models.RoleAssistant, Content: "Sparingly."},
	}
	for _, m := range want {
		saved, err := s.SaveMessage(ctx, thread.ThreadID, m.Role, m.Content)
		require.NoError(t, err)
		assert.Equal(t, thread.ThreadID, saved.ThreadID)
	}

	got, err := s.ListMessages(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, want, models.HistoryFromMessages(got))

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
	}
}

func TestSaveMessageErrors(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.SaveMessage(ctx, models.NewID(), models.RoleUser, "hello")
	assert.True(t, models.IsNotFound(err))

	thread, err := s.CreateThread(ctx, "ivy", persona.Mentor)
	require.NoError(t, err)
	_, err = s.SaveMessage(ctx, thread.ThreadID, models.Role("system"), "hello")
	assert.True(t, models.IsValidation(err))
}

func TestCheckpoints(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	thread, err := s.CreateThread(ctx, "jack", persona.Investor)
	require.NoError(t, err)

	latest, err := s.LatestCheckpoint(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.SaveCheckpoint(ctx, thread.ThreadID, []byte(`{"n":1}`))
	require.NoError(t, err)
	second, err := s.SaveCheckpoint(ctx, thread.ThreadID, []byte(`{"n":2}`))
	require.NoError(t, err)

	latest, err = s.LatestCheckpoint(ctx, thread.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.CheckpointID, latest.CheckpointID)
	assert.JSONEq(t, `{"n":2}`, string(latest.State))

	_, err = s.SaveCheckpoint(ctx, thread.ThreadID, nil)
	assert.True(t, models.IsValidation(err))

	_, err = s.SaveCheckpoint(ctx, models.NewID(), []byte(`{}`))
	assert.True(t, models.IsNotFound(err))
}

func TestPruneCheckpoints(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	thread, err := s.CreateThread(ctx, "kate", persona.Mentor)
	require.NoError(t, err)
	other, err := s.CreateThread(ctx, "kate", persona.Investor)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.SaveCheckpoint(ctx, thread.ThreadID, []byte(fmt.Sprintf(`{"i":%d}`, i)))
		require.NoError(t, err)
	}
	_, err = s.SaveCheckpoint(ctx, other.ThreadID, []byte(`{}`))
	require.NoError(t, err)

	removed, err := s.PruneCheckpoints(ctx, thread.ThreadID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	latest, err := s.LatestCheckpoint(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"i":4}`, string(latest.State))

	// Other threads are untouched
	latest, err = s.LatestCheckpoint(ctx, other.ThreadID)
	require.NoError(t, err)
	assert.NotNil(t, latest)

	_, err = s.PruneCheckpoints(ctx, thread.ThreadID, 0)
	assert.True(t, models.IsValidation(err))
}
