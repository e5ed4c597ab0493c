// ABOUTME: Executor runs one conversational turn end to end
// ABOUTME: Route, persist the user message, generate, persist the reply, then checkpoint
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/persona-chat/internal/llm"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/harper/persona-chat/internal/storage"
	"go.uber.org/zap"
)

// ErrorNotice replaces the assistant reply when generation fails
const ErrorNotice = "I apologize, but I encountered an error while generating a response. Please try again."

// ExecutorConfig wires an Executor's collaborators and limits
type ExecutorConfig struct {
	Store             storage.ThreadStore
	Router            *Router
	Checkpointer      *Checkpointer
	Builder           *ContextBuilder
	Generator         llm.Generator
	MaxMessageLength  int
	GenerationTimeout time.Duration
	Logger            *zap.Logger
}

// Executor orchestrates turns. It holds no per-request state and is safe
// for concurrent use.
type Executor struct {
	store       storage.ThreadStore
	router      *Router
	checkpoints *Checkpointer
	builder     *ContextBuilder
	generator   llm.Generator
	maxLength   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewExecutor creates an Executor
func NewExecutor(cfg ExecutorConfig) *Executor {
	builder := cfg.Builder
	if builder == nil {
		builder = NewContextBuilder(0, 0)
	}
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		store:       cfg.Store,
		router:      cfg.Router,
		checkpoints: cfg.Checkpointer,
		builder:     builder,
		generator:   cfg.Generator,
		maxLength:   cfg.MaxMessageLength,
		timeout:     timeout,
		logger:      cfg.Logger.Named("executor"),
	}
}

// HandleTurn processes one user message. Errors before the user message
// is stored are returned; generation failures after that point become an
// apology reply so the thread is never left mid-turn.
func (e *Executor) HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error) {
	req, err := req.Validate(e.maxLength)
	if err != nil {
		return nil, err
	}

	decision, err := e.router.Route(ctx, req.UserID, req.Message, req.ThreadID)
	if err != nil {
		return nil, err
	}

	prior, err := e.loadHistory(ctx, decision.ThreadID)
	if err != nil {
		return nil, err
	}

	// Stored before generation so a timeout never loses the user's input
	if _, err := e.store.SaveMessage(ctx, decision.ThreadID, models.RoleUser, req.Message); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	systemPrompt := persona.SystemPrompt(decision.Persona)
	history := e.builder.Build(systemPrompt, prior, req.Message)

	reply, notice := e.generate(ctx, decision, systemPrompt, history)

	// The turn finishes persisting even if the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	assistant, err := e.store.SaveMessage(persistCtx, decision.ThreadID, models.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := e.store.UpdateThreadPersona(persistCtx, decision.ThreadID, decision.Persona); err != nil {
		e.logger.Warn("failed to touch thread", zap.String("thread_id", decision.ThreadID), zap.Error(err))
	}

	messages := make([]models.ChatMessage, 0, len(prior)+2)
	messages = append(messages, prior...)
	messages = append(messages,
		models.ChatMessage{Role: models.RoleUser, Content: req.Message},
		models.ChatMessage{Role: models.RoleAssistant, Content: reply},
	)
	snapshot := &models.Snapshot{
		Messages:       messages,
		CurrentPersona: decision.Persona,
		ThreadID:       decision.ThreadID,
		UserID:         decision.UserID,
		Metadata: map[string]any{
			"scenario":        string(decision.Scenario),
			"detection_layer": decision.DetectionLayer,
			"error_notice":    notice,
			"message_count":   len(messages),
		},
	}
	if e.checkpoints != nil {
		if err := e.checkpoints.Save(persistCtx, snapshot); err != nil {
			e.logger.Error("failed to save checkpoint", zap.String("thread_id", decision.ThreadID), zap.Error(err))
		}
	}

	return &models.TurnResult{
		ThreadID:    decision.ThreadID,
		Persona:     decision.Persona,
		Response:    reply,
		CreatedAt:   assistant.CreatedAt,
		Scenario:    decision.Scenario,
		ErrorNotice: notice,
	}, nil
}

// generate calls the generator under the configured timeout. It reports
// whether the reply is the error notice.
func (e *Executor) generate(ctx context.Context, decision models.RoutingDecision, systemPrompt string, history []models.ChatMessage) (string, bool) {
	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	reply, err := e.generator.Generate(genCtx, systemPrompt, history)
	if err == nil && reply == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		e.logger.Warn("generation failed, replying with error notice",
			zap.String("thread_id", decision.ThreadID),
			zap.String("persona", decision.Persona),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return ErrorNotice, true
	}

	e.logger.Debug("generated reply",
		zap.String("thread_id", decision.ThreadID),
		zap.Int("history_messages", len(history)),
		zap.Int("reply_length", len(reply)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply, false
}

// loadHistory prefers the latest checkpoint and falls back to stored
// messages. The message rows win whenever the snapshot does not cover all
// of them, e.g. after a failed checkpoint save.
func (e *Executor) loadHistory(ctx context.Context, threadID string) ([]models.ChatMessage, error) {
	messages, err := e.store.ListMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if e.checkpoints != nil {
		snap, err := e.checkpoints.LoadLatest(ctx, threadID)
		switch {
		case err != nil:
			e.logger.Warn("checkpoint unavailable, rebuilding history from messages",
				zap.String("thread_id", threadID), zap.Error(err))
		case snap == nil:
		case len(snap.Messages) != len(messages):
			e.logger.Warn("checkpoint is stale, rebuilding history from messages",
				zap.String("thread_id", threadID),
				zap.Int("checkpoint_messages", len(snap.Messages)),
				zap.Int("stored_messages", len(messages)),
			)
		default:
			return snap.Messages, nil
		}
	}

	return models.HistoryFromMessages(messages), nil
}
