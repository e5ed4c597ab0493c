// ABOUTME: Append-only checkpoint persistence holding serialized agent state
// ABOUTME: Only the newest checkpoint per thread is read; older rows may be pruned
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harper/persona-chat/internal/models"
	"github.com/jmoiron/sqlx"
)

const checkpointColumns = "checkpoint_id, thread_id, state, created_at"

// checkpointRow scans state as raw bytes; both TEXT and JSONB columns
// convert cleanly into []byte
type checkpointRow struct {
	CheckpointID string    `db:"checkpoint_id"`
	ThreadID     string    `db:"thread_id"`
	State        []byte    `db:"state"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *checkpointRow) toModel() *models.Checkpoint {
	return &models.Checkpoint{
		CheckpointID: r.CheckpointID,
		ThreadID:     r.ThreadID,
		State:        r.State,
		CreatedAt:    r.CreatedAt,
	}
}

// CheckpointStore handles checkpoint persistence
type CheckpointStore struct {
	db      *DB
	threads *ThreadStore
}

// NewCheckpointStore creates a new CheckpointStore
func NewCheckpointStore(db *DB, threads *ThreadStore) *CheckpointStore {
	return &CheckpointStore{db: db, threads: threads}
}

// Save appends a checkpoint. Prior rows are never modified, so a failed
// save leaves the previous checkpoint intact.
func (s *CheckpointStore) Save(ctx context.Context, rawThreadID string, state []byte) (*models.Checkpoint, error) {
	if err := models.ValidateExternalID("thread_id", rawThreadID); err != nil {
		return nil, err
	}
	if len(state) == 0 {
		return nil, fmt.Errorf("%w: checkpoint state cannot be empty", models.ErrValidation)
	}

	threadID := models.CanonicalID(rawThreadID)
	checkpointID := models.NewID()

	var row checkpointRow
	err := s.db.withTx(ctx, "save checkpoint", func(tx *sqlx.Tx) error {
		if err := s.threads.exists(ctx, tx, threadID); err != nil {
			return classify("save checkpoint", err)
		}
		return classify("save checkpoint", s.db.insertRow(ctx, tx, &row, insertSpec{
			table:   "checkpoints",
			columns: checkpointColumns,
			values:  "?, ?, " + s.db.dialect.JSONPlaceholder + ", ?",
			args:    []any{s.db.dialect.ID(checkpointID), s.db.dialect.ID(threadID), string(state), s.db.clock.Now()},
			key:     "checkpoint_id",
			keyArg:  s.db.dialect.ID(checkpointID),
		}))
	})
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Latest returns the newest checkpoint for a thread, or nil when there is none
func (s *CheckpointStore) Latest(ctx context.Context, rawThreadID string) (*models.Checkpoint, error) {
	if err := models.ValidateExternalID("thread_id", rawThreadID); err != nil {
		return nil, err
	}

	var row checkpointRow
	err := s.db.conn.GetContext(ctx, &row, s.db.dialect.Rebind(`
		SELECT `+checkpointColumns+`
		FROM checkpoints
		WHERE thread_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`), s.db.dialect.ID(models.CanonicalID(rawThreadID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("latest checkpoint", err)
	}
	return row.toModel(), nil
}

// Prune deletes all but the newest keep checkpoints of a thread and
// returns how many rows were removed
func (s *CheckpointStore) Prune(ctx context.Context, rawThreadID string, keep int) (int64, error) {
	if err := models.ValidateExternalID("thread_id", rawThreadID); err != nil {
		return 0, err
	}
	if keep < 1 {
		return 0, fmt.Errorf("%w: keep must be at least 1, got %d", models.ErrValidation, keep)
	}

	id := s.db.dialect.ID(models.CanonicalID(rawThreadID))
	res, err := s.db.conn.ExecContext(ctx, s.db.dialect.Rebind(`
		DELETE FROM checkpoints
		WHERE thread_id = ?
		AND checkpoint_id NOT IN (
			SELECT checkpoint_id FROM checkpoints
			WHERE thread_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
	`), id, id, keep)
	if err != nil {
		return 0, classify("prune checkpoints", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("prune checkpoints", err)
	}
	return n, nil
}
