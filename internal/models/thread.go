// ABOUTME: User, Thread, and Message entities persisted by the thread store
// ABOUTME: Threads bind one user to one persona; messages are append-only
package models

import (
	"errors"
	"time"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether r is a role the store accepts
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// User is created lazily on first thread creation and never deleted
type User struct {
	UserID    string    `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Thread is a durable conversation context for one user and one persona
type Thread struct {
	ThreadID  string    `json:"thread_id" db:"thread_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Persona   string    `json:"persona" db:"persona"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks if the Thread has valid data
func (t *Thread) Validate() error {
	if t.ThreadID == "" {
		return errors.New("thread ID cannot be empty")
	}
	if t.UserID == "" {
		return errors.New("user ID cannot be empty")
	}
	if t.Persona == "" {
		return errors.New("persona cannot be empty")
	}
	return nil
}

// Message is one immutable turn half inside a thread
type Message struct {
	MessageID string    `json:"message_id" db:"message_id"`
	ThreadID  string    `json:"thread_id" db:"thread_id"`
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
