// ABOUTME: Thread persistence: create, lookup, listing, and persona updates
// ABOUTME: Thread creation ensures the owning user exists in the same transaction
package sqldb

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/jmoiron/sqlx"
)

const threadColumns = "thread_id, user_id, persona, created_at, updated_at"

// ThreadStore handles thread persistence
type ThreadStore struct {
	db    *DB
	users *UserStore
}

// NewThreadStore creates a new ThreadStore
func NewThreadStore(db *DB, users *UserStore) *ThreadStore {
	return &ThreadStore{db: db, users: users}
}

// Create starts a new thread for a user under a persona, creating the user
// row first when it does not exist yet
func (s *ThreadStore) Create(ctx context.Context, rawUserID, personaID string) (*models.Thread, error) {
	if err := models.ValidateExternalID("user_id", rawUserID); err != nil {
		return nil, err
	}
	if !persona.Valid(personaID) {
		return nil, fmt.Errorf("%w: unknown persona %q", models.ErrValidation, personaID)
	}

	userID := models.CanonicalID(rawUserID)
	threadID := models.NewID()
	now := s.db.clock.Now()

	var thread models.Thread
	err := s.db.withTx(ctx, "create thread", func(tx *sqlx.Tx) error {
		if err := s.users.ensure(ctx, tx, userID); err != nil {
			return err
		}
		return classify("create thread", s.db.insertRow(ctx, tx, &thread, insertSpec{
			table:   "threads",
			columns: threadColumns,
			values:  "?, ?, ?, ?, ?",
			args:    []any{s.db.dialect.ID(threadID), s.db.dialect.ID(userID), personaID, now, now},
			key:     "thread_id",
			keyArg:  s.db.dialect.ID(threadID),
		}))
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// Get retrieves a thread by id
func (s *ThreadStore) Get(ctx context.Context, rawID string) (*models.Thread, error) {
	if err := models.ValidateExternalID("thread_id", rawID); err != nil {
		return nil, err
	}

	var thread models.Thread
	err := s.db.conn.GetContext(ctx, &thread, s.db.dialect.Rebind(
		"SELECT "+threadColumns+" FROM threads WHERE thread_id = ?",
	), s.db.dialect.ID(models.CanonicalID(rawID)))
	if err != nil {
		return nil, classify("get thread", err)
	}
	return &thread, nil
}

// List returns a user's threads, most recently updated first
func (s *ThreadStore) List(ctx context.Context, rawUserID string) ([]*models.Thread, error) {
	if err := models.ValidateExternalID("user_id", rawUserID); err != nil {
		return nil, err
	}

	threads := []*models.Thread{}
	err := s.db.conn.SelectContext(ctx, &threads, s.db.dialect.Rebind(`
		SELECT `+threadColumns+`
		FROM threads
		WHERE user_id = ?
		ORDER BY updated_at DESC, created_at DESC
	`), s.db.dialect.ID(models.CanonicalID(rawUserID)))
	if err != nil {
		return nil, classify("list threads", err)
	}
	return threads, nil
}

// UpdatePersona sets a thread's persona and advances updated_at
func (s *ThreadStore) UpdatePersona(ctx context.Context, rawID, personaID string) error {
	if err := models.ValidateExternalID("thread_id", rawID); err != nil {
		return err
	}
	if !persona.Valid(personaID) {
		return fmt.Errorf("%w: unknown persona %q", models.ErrValidation, personaID)
	}

	res, err := s.db.conn.ExecContext(ctx, s.db.dialect.Rebind(`
		UPDATE threads SET persona = ?, updated_at = ? WHERE thread_id = ?
	`), personaID, s.db.clock.Now(), s.db.dialect.ID(models.CanonicalID(rawID)))
	if err != nil {
		return classify("update thread persona", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify("update thread persona", err)
	}
	if n == 0 {
		return fmt.Errorf("update thread persona: %w", models.ErrNotFound)
	}
	return nil
}

// exists reports whether a thread row is present, within tx
func (s *ThreadStore) exists(ctx context.Context, tx *sqlx.Tx, id string) error {
	var one int
	return tx.GetContext(ctx, &one, s.db.dialect.Rebind(
		"SELECT 1 FROM threads WHERE thread_id = ?",
	), s.db.dialect.ID(id))
}
