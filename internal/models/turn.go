// ABOUTME: Turn request and result types exchanged with the turn executor
// ABOUTME: One turn is one user message in and one assistant message out
package models

import (
	"fmt"
	"strings"
	"time"
)

// TurnRequest is an incoming user message
type TurnRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Validate checks the request and returns a sanitized copy. Messages longer
// than maxLen runes are truncated; maxLen <= 0 disables truncation.
func (r TurnRequest) Validate(maxLen int) (TurnRequest, error) {
	if err := ValidateExternalID("user_id", r.UserID); err != nil {
		return r, err
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return r, fmt.Errorf("%w: message cannot be empty", ErrValidation)
	}
	if maxLen > 0 {
		if runes := []rune(msg); len(runes) > maxLen {
			msg = string(runes[:maxLen])
		}
	}
	if len(r.ThreadID) > MaxExternalIDLength {
		return r, fmt.Errorf("%w: thread_id exceeds %d characters", ErrValidation, MaxExternalIDLength)
	}
	return TurnRequest{UserID: r.UserID, Message: msg, ThreadID: strings.TrimSpace(r.ThreadID)}, nil
}

// TurnResult is what a completed turn returns to the caller
type TurnResult struct {
	ThreadID    string          `json:"thread_id"`
	Persona     string          `json:"persona"`
	Response    string          `json:"response"`
	CreatedAt   time.Time       `json:"created_at"`
	Scenario    RoutingScenario `json:"scenario"`
	ErrorNotice bool            `json:"error_notice,omitempty"`
}
