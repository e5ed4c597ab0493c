// ABOUTME: OpenAI chat completion client implementing Generator
// ABOUTME: Retries transient failures with exponential backoff and per-attempt timeouts
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultChatModel is the default model for chat completions
const DefaultChatModel = "gpt-4o-mini"

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	temperature float32
	maxTokens   int
}

// NewOpenAIClient creates a client. BaseURL points it at any
// OpenAI-compatible gateway.
func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		timeout:     timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate requests a chat completion. Failures are wrapped with
// models.ErrUnavailable.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				break
			}
		}

		content, err := c.complete(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)

		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return "", fmt.Errorf("%w: chat completion failed: %w", models.ErrUnavailable, lastErr)
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	return content, nil
}

// retryable reports whether a failed request is worth repeating. Client
// errors other than rate limiting will fail the same way again.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code < 400 || code >= 500
}
