// ABOUTME: Unified Storage layer that wraps the per-entity relational stores
// ABOUTME: Exposes thread and checkpoint operations behind one backend-neutral type
package sqldb

import (
	"context"

	"github.com/harper/persona-chat/internal/models"
)

// Storage combines the user, thread, message, and checkpoint stores over one DB
type Storage struct {
	db          *DB
	users       *UserStore
	threads     *ThreadStore
	messages    *MessageStore
	checkpoints *CheckpointStore
}

// NewStorage builds a Storage over an open DB
func NewStorage(db *DB) *Storage {
	users := NewUserStore(db)
	threads := NewThreadStore(db, users)
	return &Storage{
		db:          db,
		users:       users,
		threads:     threads,
		messages:    NewMessageStore(db, threads),
		checkpoints: NewCheckpointStore(db, threads),
	}
}

// NewStorageInMemory creates an in-memory sqlite storage (for testing)
func NewStorageInMemory(ctx context.Context) (*Storage, error) {
	db, err := OpenSQLiteInMemory(ctx)
	if err != nil {
		return nil, err
	}
	return NewStorage(db), nil
}

// DB returns the underlying database wrapper
func (s *Storage) DB() *DB {
	return s.db
}

// CreateUser ensures a user exists
func (s *Storage) CreateUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Create(ctx, userID)
}

// GetUser retrieves a user
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

// CreateThread starts a thread for a user under a persona
func (s *Storage) CreateThread(ctx context.Context, userID, personaID string) (*models.Thread, error) {
	return s.threads.Create(ctx, userID, personaID)
}

// GetThread retrieves a thread
func (s *Storage) GetThread(ctx context.Context, threadID string) (*models.Thread, error) {
	return s.threads.Get(ctx, threadID)
}

// ListThreads returns a user's threads, most recently updated first
func (s *Storage) ListThreads(ctx context.Context, userID string) ([]*models.Thread, error) {
	return s.threads.List(ctx, userID)
}

// UpdateThreadPersona changes a thread's persona and bumps updated_at
func (s *Storage) UpdateThreadPersona(ctx context.Context, threadID, personaID string) error {
	return s.threads.UpdatePersona(ctx, threadID, personaID)
}

// SaveMessage appends a message to a thread
func (s *Storage) SaveMessage(ctx context.Context, threadID string, role models.Role, content string) (*models.Message, error) {
	return s.messages.Save(ctx, threadID, role, content)
}

// ListMessages returns a thread's messages oldest first
func (s *Storage) ListMessages(ctx context.Context, threadID string) ([]*models.Message, error) {
	return s.messages.List(ctx, threadID)
}

// SaveCheckpoint appends a serialized state snapshot
func (s *Storage) SaveCheckpoint(ctx context.Context, threadID string, state []byte) (*models.Checkpoint, error) {
	return s.checkpoints.Save(ctx, threadID, state)
}

// LatestCheckpoint returns the newest checkpoint, or nil when there is none
func (s *Storage) LatestCheckpoint(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	return s.checkpoints.Latest(ctx, threadID)
}

// PruneCheckpoints keeps only the newest keep checkpoints of a thread
func (s *Storage) PruneCheckpoints(ctx context.Context, threadID string, keep int) (int64, error) {
	return s.checkpoints.Prune(ctx, threadID, keep)
}

// Ping checks the backend is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool
func (s *Storage) Close() error {
	return s.db.Close()
}
