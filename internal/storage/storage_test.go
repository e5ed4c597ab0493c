// ABOUTME: Tests for the storage factory
// ABOUTME: Verifies backend selection and on-disk sqlite creation

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "persona.db")

	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, MaxOpenConns: 1})
	require.NoError(t, err)

	thread, err := store.CreateThread(ctx, "alice", persona.Mentor)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err, "database file was not created")

	// Data survives reopening
	reopened, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: path, MaxOpenConns: 1})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetThread(ctx, thread.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, persona.Mentor, got.Persona)
}

func TestOpenInMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Ping(ctx))

	_, err = store.GetThread(ctx, models.NewID())
	assert.True(t, models.IsNotFound(err))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
