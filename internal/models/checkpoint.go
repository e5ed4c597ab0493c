// ABOUTME: Checkpoint rows and the agent-state snapshot stored inside them
// ABOUTME: The snapshot is opaque to the store and owned by the turn executor
package models

import (
	"encoding/json"
	"time"
)

// Checkpoint is one appended state row; only the newest per thread is read
type Checkpoint struct {
	CheckpointID string          `json:"checkpoint_id"`
	ThreadID     string          `json:"thread_id"`
	State        json.RawMessage `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ChatMessage is a role/content pair in a generation history
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Snapshot is the conversational state saved after every turn
type Snapshot struct {
	Messages       []ChatMessage  `json:"messages"`
	CurrentPersona string         `json:"current_persona"`
	ThreadID       string         `json:"thread_id"`
	UserID         string         `json:"user_id"`
	Metadata       map[string]any `json:"metadata"`
}

// HistoryFromMessages converts stored rows into a generation history
func HistoryFromMessages(messages []*Message) []ChatMessage {
	history := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}
