// ABOUTME: User persistence with idempotent create-if-absent semantics
// ABOUTME: External ids are canonicalized before they reach the database
package sqldb

import (
	"context"

	"github.com/harper/persona-chat/internal/models"
	"github.com/jmoiron/sqlx"
)

// UserStore handles user persistence
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create ensures a user row exists and returns it. Creating an existing
// user is not an error; the stored row is returned unchanged.
func (s *UserStore) Create(ctx context.Context, rawID string) (*models.User, error) {
	if err := models.ValidateExternalID("user_id", rawID); err != nil {
		return nil, err
	}
	id := models.CanonicalID(rawID)

	var user models.User
	err := s.db.withTx(ctx, "create user", func(tx *sqlx.Tx) error {
		if err := s.ensure(ctx, tx, id); err != nil {
			return err
		}
		return classify("create user", s.get(ctx, tx, id, &user))
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Get retrieves a user by id
func (s *UserStore) Get(ctx context.Context, rawID string) (*models.User, error) {
	if err := models.ValidateExternalID("user_id", rawID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.get(ctx, s.db.conn, models.CanonicalID(rawID), &user); err != nil {
		return nil, classify("get user", err)
	}
	return &user, nil
}

// ensure inserts the user if absent. Concurrent callers racing on the same
// id both succeed; the loser's insert is a no-op.
func (s *UserStore) ensure(ctx context.Context, tx *sqlx.Tx, id string) error {
	_, err := tx.ExecContext(ctx, s.db.dialect.Rebind(`
		INSERT INTO users (user_id, created_at)
		VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`), s.db.dialect.ID(id), s.db.clock.Now())
	return classify("ensure user", err)
}

func (s *UserStore) get(ctx context.Context, q sqlx.QueryerContext, id string, dest *models.User) error {
	return sqlx.GetContext(ctx, q, dest, s.db.dialect.Rebind(`
		SELECT user_id, created_at FROM users WHERE user_id = ?
	`), s.db.dialect.ID(id))
}
