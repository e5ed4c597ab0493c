// ABOUTME: ContextBuilder assembles the generation history for a persona turn
// ABOUTME: Keeps the newest prior messages within message and approximate token limits
package core

import (
	"unicode/utf8"

	"github.com/harper/persona-chat/internal/models"
)

// ContextBuilder trims prior history to fit the generation budget
type ContextBuilder struct {
	maxMessages int
	maxTokens   int
}

// NewContextBuilder creates a builder. Zero limits mean unlimited.
func NewContextBuilder(maxMessages, maxTokens int) *ContextBuilder {
	return &ContextBuilder{maxMessages: maxMessages, maxTokens: maxTokens}
}

// Build returns prior history trimmed oldest-first, followed by the new
// user message, which is always kept
func (b *ContextBuilder) Build(systemPrompt string, prior []models.ChatMessage, userMessage string) []models.ChatMessage {
	budget := b.maxTokens - estimateTokens(systemPrompt) - estimateTokens(userMessage)

	start := len(prior)
	used := 0
	for i := len(prior) - 1; i >= 0; i-- {
		if b.maxMessages > 0 && len(prior)-i > b.maxMessages {
			break
		}
		cost := estimateTokens(prior[i].Content)
		if b.maxTokens > 0 && used+cost > budget {
			break
		}
		used += cost
		start = i
	}

	history := make([]models.ChatMessage, 0, len(prior)-start+1)
	history = append(history, prior[start:]...)
	return append(history, models.ChatMessage{Role: models.RoleUser, Content: userMessage})
}

// estimateTokens approximates 4 characters per token plus per-message overhead
func estimateTokens(s string) int {
	return utf8.RuneCountInString(s)/4 + 4
}
