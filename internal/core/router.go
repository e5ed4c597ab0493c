// ABOUTME: Router decides the thread and persona for every incoming turn
// ABOUTME: Combines persona intent detection with the user's thread inventory across 4 cases
package core

import (
	"context"
	"fmt"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/harper/persona-chat/internal/storage"
	"go.uber.org/zap"
)

// Router resolves (user, message, current thread) to a target thread. It
// reads and creates threads but never writes messages.
type Router struct {
	threads  storage.ThreadStore
	detector *persona.Detector
	logger   *zap.Logger
}

// NewRouter creates a Router. A nil detector uses the default policy.
func NewRouter(threads storage.ThreadStore, detector *persona.Detector, logger *zap.Logger) *Router {
	if detector == nil {
		detector = persona.DefaultDetector()
	}
	return &Router{
		threads:  threads,
		detector: detector,
		logger:   logger.Named("router"),
	}
}

// Route determines which routing scenario applies for the given turn.
// The returned persona is always the one persisted on the resolved thread.
func (r *Router) Route(ctx context.Context, userID, message, threadID string) (models.RoutingDecision, error) {
	if err := models.ValidateExternalID("user_id", userID); err != nil {
		return models.RoutingDecision{}, err
	}
	userID = models.CanonicalID(userID)

	current, err := r.currentThread(ctx, userID, threadID)
	if err != nil {
		return models.RoutingDecision{}, err
	}

	detection := r.detector.DetectWithLayer(message)

	decision := models.RoutingDecision{
		UserID:         userID,
		Requested:      detection.Persona,
		DetectionLayer: string(detection.Layer),
	}
	if current != nil {
		decision.PreviousThread = current.ThreadID
	}

	switch {
	// Case A: switch requested to the persona already active
	case detection.Requested() && current != nil && current.Persona == detection.Persona:
		decision.Scenario = models.PersonaStay
		decision.ThreadID = current.ThreadID

	// Case B: switch requested elsewhere, recall an existing thread or spawn one
	case detection.Requested():
		existing, err := r.findPersonaThread(ctx, userID, detection.Persona)
		if err != nil {
			return models.RoutingDecision{}, err
		}
		if existing != nil {
			decision.Scenario = models.PersonaRecall
			decision.ThreadID = existing.ThreadID
		} else {
			created, err := r.threads.CreateThread(ctx, userID, detection.Persona)
			if err != nil {
				return models.RoutingDecision{}, fmt.Errorf("failed to create %s thread: %w", detection.Persona, err)
			}
			decision.Scenario = models.PersonaSpawn
			decision.ThreadID = created.ThreadID
		}

	// Case C: no cue, keep going in the current thread
	case current != nil:
		decision.Scenario = models.ThreadContinuation
		decision.ThreadID = current.ThreadID

	// Case D: no cue and no thread, start with the default persona
	default:
		created, err := r.threads.CreateThread(ctx, userID, persona.Default)
		if err != nil {
			return models.RoutingDecision{}, fmt.Errorf("failed to create default thread: %w", err)
		}
		decision.Scenario = models.NewThreadFirst
		decision.ThreadID = created.ThreadID
	}

	// The stored persona is authoritative even if it changed since we looked
	resolved, err := r.threads.GetThread(ctx, decision.ThreadID)
	if err != nil {
		return models.RoutingDecision{}, fmt.Errorf("failed to reload routed thread: %w", err)
	}
	decision.Persona = resolved.Persona

	r.logger.Info("routed turn",
		zap.String("user_id", userID),
		zap.String("scenario", string(decision.Scenario)),
		zap.String("thread_id", decision.ThreadID),
		zap.String("persona", decision.Persona),
		zap.String("detection_layer", decision.DetectionLayer),
	)

	return decision, nil
}

// currentThread resolves the caller's thread id. Unknown or malformed ids
// and threads owned by someone else mean "no current thread".
func (r *Router) currentThread(ctx context.Context, userID, threadID string) (*models.Thread, error) {
	if threadID == "" {
		return nil, nil
	}

	thread, err := r.threads.GetThread(ctx, threadID)
	if models.IsNotFound(err) || models.IsValidation(err) {
		r.logger.Debug("ignoring unknown thread id", zap.String("thread_id", threadID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current thread: %w", err)
	}

	if thread.UserID != userID {
		r.logger.Warn("ignoring thread owned by another user",
			zap.String("thread_id", thread.ThreadID),
			zap.String("user_id", userID),
		)
		return nil, nil
	}
	return thread, nil
}

// findPersonaThread returns the user's most recently updated thread for a persona
func (r *Router) findPersonaThread(ctx context.Context, userID, personaID string) (*models.Thread, error) {
	threads, err := r.threads.ListThreads(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	for _, t := range threads {
		if t.Persona == personaID {
			return t, nil
		}
	}
	return nil, nil
}
