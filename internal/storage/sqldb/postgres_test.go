// ABOUTME: Tests for the postgres dialect driven through sqlmock
// ABOUTME: Verifies dollar placeholders, RETURNING writes, JSONB casts, and error mapping
package sqldb

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewStorage(New(conn, Postgres)), mock
}

func TestPostgresCreateThreadUsesReturning(t *testing.T) {
	s, mock := newMockStorage(t)
	userID := models.CanonicalID("alice")
	threadID := models.NewID()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (user_id, created_at)") + `\s+` + regexp.QuoteMeta("VALUES ($1, $2)")).
		WithArgs(userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO threads (thread_id, user_id, persona, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING thread_id, user_id, persona, created_at, updated_at")).
		WithArgs(sqlmock.AnyArg(), userID, persona.Investor, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"thread_id", "user_id", "persona", "created_at", "updated_at"}).
			AddRow(threadID, userID, persona.Investor, now, now))
	mock.ExpectCommit()

	thread, err := s.CreateThread(context.Background(), "alice", persona.Investor)
	require.NoError(t, err)
	assert.Equal(t, threadID, thread.ThreadID)
	assert.Equal(t, persona.Investor, thread.Persona)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateThreadRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO threads").WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock.ExpectRollback()

	_, err := s.CreateThread(context.Background(), "alice", persona.Mentor)
	require.Error(t, err)
	assert.True(t, models.IsUnavailable(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveCheckpointCastsJSONB(t *testing.T) {
	s, mock := newMockStorage(t)
	threadID := models.NewID()
	state := []byte(`{"current_persona":"mentor"}`)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM threads WHERE thread_id = $1")).
		WithArgs(threadID).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, CAST($3 AS JSONB), $4) RETURNING checkpoint_id")).
		WithArgs(sqlmock.AnyArg(), threadID, string(state), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"checkpoint_id", "thread_id", "state", "created_at"}).
			AddRow(models.NewID(), threadID, state, time.Now()))
	mock.ExpectCommit()

	cp, err := s.SaveCheckpoint(context.Background(), threadID, state)
	require.NoError(t, err)
	assert.JSONEq(t, string(state), string(cp.State))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetThreadNotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	threadID := models.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("FROM threads WHERE thread_id = $1")).
		WithArgs(threadID).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetThread(context.Background(), threadID)
	assert.True(t, models.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestCheckpointNone(t *testing.T) {
	s, mock := newMockStorage(t)
	threadID := models.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 1")).
		WithArgs(threadID).
		WillReturnRows(sqlmock.NewRows([]string{"checkpoint_id", "thread_id", "state", "created_at"}))

	cp, err := s.LatestCheckpoint(context.Background(), threadID)
	require.NoError(t, err)
	assert.Nil(t, cp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdatePersonaNotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	threadID := models.NewID()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE threads SET persona = $1, updated_at = $2 WHERE thread_id = $3")).
		WithArgs(persona.Mentor, sqlmock.AnyArg(), threadID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateThreadPersona(context.Background(), threadID, persona.Mentor)
	assert.True(t, models.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPing(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	s := NewStorage(New(conn, Postgres))

	mock.ExpectPing().WillReturnError(&pq.Error{Code: "57P01", Message: "admin shutdown"})
	assert.True(t, models.IsUnavailable(s.Ping(context.Background())))
}

func TestDialectRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.Rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", SQLite.Rebind("a = ? AND b = ?"))
}

func TestDialectID(t *testing.T) {
	id := models.NewID()
	assert.Equal(t, id, SQLite.ID(id))
	assert.Equal(t, id, Postgres.ID(id).(interface{ String() string }).String())
	assert.Equal(t, "plain", Postgres.ID("plain"))
}

func TestDialectStatements(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres} {
		stmts := d.Statements()
		assert.Len(t, stmts, 7, d.Name)
		for _, stmt := range stmts {
			assert.NotContains(t, stmt, ";")
		}
	}
}
