// ABOUTME: Backend-neutral storage contracts for threads and checkpoints
// ABOUTME: Open selects the relational backend from configuration
package storage

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/storage/sqldb"
)

// ThreadStore persists users, threads, and messages. Id arguments accept
// canonical ids or arbitrary strings, which are mapped deterministically.
type ThreadStore interface {
	CreateUser(ctx context.Context, userID string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CreateThread(ctx context.Context, userID, personaID string) (*models.Thread, error)
	GetThread(ctx context.Context, threadID string) (*models.Thread, error)
	ListThreads(ctx context.Context, userID string) ([]*models.Thread, error)
	UpdateThreadPersona(ctx context.Context, threadID, personaID string) error
	SaveMessage(ctx context.Context, threadID string, role models.Role, content string) (*models.Message, error)
	ListMessages(ctx context.Context, threadID string) ([]*models.Message, error)
}

// CheckpointStore appends serialized snapshots and reads back the newest.
// LatestCheckpoint returns nil, nil when a thread has no checkpoint.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, threadID string, state []byte) (*models.Checkpoint, error)
	LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error)
	PruneCheckpoints(ctx context.Context, threadID string, keep int) (int64, error)
}

// Store is the full persistence surface used by the service
type Store interface {
	ThreadStore
	CheckpointStore
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*sqldb.Storage)(nil)

// Open connects to the backend named by cfg.Driver and applies the schema
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	var (
		db  *sqldb.DB
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path == ":memory:" {
			db, err = sqldb.OpenSQLiteInMemory(ctx)
		} else {
			db, err = sqldb.OpenSQLite(ctx, cfg.Path)
		}
	case config.DriverPostgres:
		db, err = sqldb.OpenPostgres(ctx, cfg.URL, cfg.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return sqldb.NewStorage(db), nil
}
