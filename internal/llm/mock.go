// ABOUTME: Deterministic offline Generator for tests, benchmarks, and local runs
// ABOUTME: Replies are tagged with the persona whose prompt was used
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
)

// MockCall records one Generate invocation
type MockCall struct {
	SystemPrompt string
	History      []models.ChatMessage
}

// MockClient generates canned replies. Set Err to make every call fail and
// Delay to simulate a slow service.
type MockClient struct {
	Err   error
	Delay time.Duration

	mu    sync.Mutex
	calls []MockCall
}

// NewMockClient creates a mock generator
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate echoes the latest user message, prefixed with the persona id
func (m *MockClient) Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		SystemPrompt: systemPrompt,
		History:      append([]models.ChatMessage(nil), history...),
	})
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %w", models.ErrUnavailable, ctx.Err())
		case <-time.After(m.Delay):
		}
	}
	if m.Err != nil {
		return "", m.Err
	}

	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			last = history[i].Content
			break
		}
	}
	if r := []rune(last); len(r) > 80 {
		last = string(r[:80]) + "..."
	}

	return fmt.Sprintf("[%s] Noted: %s", personaFor(systemPrompt), last), nil
}

// Calls returns a copy of the recorded invocations
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func personaFor(systemPrompt string) string {
	for id, prompt := range persona.Personas() {
		if prompt == systemPrompt {
			return id
		}
	}
	return "assistant"
}
