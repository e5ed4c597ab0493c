// ABOUTME: Append-only message persistence for threads
// ABOUTME: Messages are read back in creation order
package sqldb

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/models"
	"github.com/jmoiron/sqlx"
)

const messageColumns = "message_id, thread_id, role, content, created_at"

// MessageStore handles message persistence
type MessageStore struct {
	db      *DB
	threads *ThreadStore
}

// NewMessageStore creates a new MessageStore
func NewMessageStore(db *DB, threads *ThreadStore) *MessageStore {
	return &MessageStore{db: db, threads: threads}
}

// Save appends a message to a thread
func (s *MessageStore) Save(ctx context.Context, rawThreadID string, role models.Role, content string) (*models.Message, error) {
	if err := models.ValidateExternalID("thread_id", rawThreadID); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", models.ErrValidation, role)
	}

	threadID := models.CanonicalID(rawThreadID)
	messageID := models.NewID()

	var msg models.Message
	err := s.db.withTx(ctx, "save message", func(tx *sqlx.Tx) error {
		if err := s.threads.exists(ctx, tx, threadID); err != nil {
			return classify("save message", err)
		}
		return classify("save message", s.db.insertRow(ctx, tx, &msg, insertSpec{
			table:   "messages",
			columns: messageColumns,
			values:  "?, ?, ?, ?, ?",
			args:    []any{s.db.dialect.ID(messageID), s.db.dialect.ID(threadID), string(role), content, s.db.clock.Now()},
			key:     "message_id",
			keyArg:  s.db.dialect.ID(messageID),
		}))
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns a thread's messages in creation order
func (s *MessageStore) List(ctx context.Context, rawThreadID string) ([]*models.Message, error) {
	if err := models.ValidateExternalID("thread_id", rawThreadID); err != nil {
		return nil, err
	}

	messages := []*models.Message{}
	err := s.db.conn.SelectContext(ctx, &messages, s.db.dialect.Rebind(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE thread_id = ?
		ORDER BY created_at ASC
	`), s.db.dialect.ID(models.CanonicalID(rawThreadID)))
	if err != nil {
		return nil, classify("list messages", err)
	}
	return messages, nil
}
