// ABOUTME: Read-only history queries shared by the HTTP, MCP, and CLI surfaces
// ABOUTME: Enforces that a user can only read their own threads
package core

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/storage"
)

// History answers thread and message listings for a user
type History struct {
	store storage.ThreadStore
}

// NewHistory creates a History
func NewHistory(store storage.ThreadStore) *History {
	return &History{store: store}
}

// Threads lists a user's threads, most recently active first
func (h *History) Threads(ctx context.Context, userID string) ([]*models.Thread, error) {
	if err := models.ValidateExternalID("user_id", userID); err != nil {
		return nil, err
	}
	return h.store.ListThreads(ctx, userID)
}

// Thread returns one of the user's threads and its messages. A thread
// owned by someone else is reported as not found.
func (h *History) Thread(ctx context.Context, userID, threadID string) (*models.Thread, []*models.Message, error) {
	if err := models.ValidateExternalID("user_id", userID); err != nil {
		return nil, nil, err
	}

	thread, err := h.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if thread.UserID != models.CanonicalID(userID) {
		return nil, nil, fmt.Errorf("thread %s: %w", threadID, models.ErrNotFound)
	}

	messages, err := h.store.ListMessages(ctx, thread.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}
