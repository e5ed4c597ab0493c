// ABOUTME: Generation capability consumed by the turn executor
// ABOUTME: Builds a Generator from configuration: OpenAI-compatible or offline mock
package llm

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/models"
)

// Generator produces a reply for a persona given the conversation so far.
// history is ordered oldest first and ends with the new user message.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage) (string, error)
}

// New builds the generator named by cfg.Provider
func New(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(ClientConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	case config.ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
