// ABOUTME: HTTP handlers for chat turns, history, personas, and health
// ABOUTME: Handlers return errors and leave status mapping to the error handler
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	UserID   string `json:"user_id"`
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse is returned for every completed turn
type ChatResponse struct {
	ThreadID  string    `json:"thread_id"`
	Persona   string    `json:"persona"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse lists a user's threads, or one thread with its messages
type HistoryResponse struct {
	UserID   string            `json:"user_id"`
	Threads  []*models.Thread  `json:"threads"`
	Messages []*models.Message `json:"messages,omitempty"`
}

// PersonaInfo describes one selectable persona
type PersonaInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Default     bool   `json:"default"`
}

// Chat handles one conversational turn.
// POST /api/chat
func (s *Server) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed request body", models.ErrValidation)
	}

	res, err := s.turns.HandleTurn(c.Request().Context(), models.TurnRequest{
		UserID:   req.UserID,
		Message:  req.Message,
		ThreadID: req.ThreadID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ChatResponse{
		ThreadID:  res.ThreadID,
		Persona:   res.Persona,
		Response:  res.Response,
		CreatedAt: res.CreatedAt,
	})
}

// ChatHistory returns every thread for a user, or a single thread and its
// messages when thread_id is given.
// GET /api/chat_history?user_id=&thread_id=
func (s *Server) ChatHistory(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.QueryParam("user_id")
	threadID := c.QueryParam("thread_id")

	if threadID == "" {
		threads, err := s.history.Threads(ctx, userID)
		if err != nil {
			return err
		}
		if threads == nil {
			threads = []*models.Thread{}
		}
		return c.JSON(http.StatusOK, HistoryResponse{UserID: userID, Threads: threads})
	}

	thread, messages, err := s.history.Thread(ctx, userID, threadID)
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return c.JSON(http.StatusOK, HistoryResponse{
		UserID:   userID,
		Threads:  []*models.Thread{thread},
		Messages: messages,
	})
}

// Personas lists the selectable personas.
// GET /api/personas
func (s *Server) Personas(c echo.Context) error {
	all := persona.All()
	out := make([]PersonaInfo, 0, len(all))
	for _, p := range all {
		out = append(out, PersonaInfo{ID: p.ID, DisplayName: p.DisplayName, Default: p.ID == persona.Default})
	}
	return c.JSON(http.StatusOK, map[string]any{"personas": out})
}

// Health reports whether the store is reachable.
// GET /health
func (s *Server) Health(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "unhealthy",
			"version": s.version,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

// Root identifies the service.
// GET /
func (s *Server) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":    "persona-chat",
		"version": s.version,
	})
}
