// ABOUTME: MCP tool handler implementations for the persona chat server
// ABOUTME: Tool failures are reported as tool errors, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/persona-chat/internal/core"
	"github.com/harper/persona-chat/internal/models"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	executor *core.Executor
	history  *core.History
	logger   *zap.Logger
}

// Chat handles the chat tool
func (h *Handlers) Chat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}

	res, err := h.executor.HandleTurn(ctx, models.TurnRequest{
		UserID:   userID,
		Message:  message,
		ThreadID: request.GetString("thread_id", ""),
	})
	if err != nil {
		return h.toolError("chat failed", err), nil
	}

	return jsonResult(map[string]interface{}{
		"thread_id":    res.ThreadID,
		"persona":      res.Persona,
		"response":     res.Response,
		"created_at":   res.CreatedAt.Format(time.RFC3339Nano),
		"scenario":     string(res.Scenario),
		"error_notice": res.ErrorNotice,
	})
}

// ListThreads handles the list_threads tool
func (h *Handlers) ListThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}

	threads, err := h.history.Threads(ctx, userID)
	if err != nil {
		return h.toolError("failed to list threads", err), nil
	}

	out := make([]map[string]interface{}, 0, len(threads))
	for _, t := range threads {
		out = append(out, map[string]interface{}{
			"thread_id":  t.ThreadID,
			"persona":    t.Persona,
			"created_at": t.CreatedAt.Format(time.RFC3339),
			"updated_at": t.UpdatedAt.Format(time.RFC3339),
		})
	}

	return jsonResult(map[string]interface{}{
		"threads": out,
	})
}

// GetThreadMessages handles the get_thread_messages tool
func (h *Handlers) GetThreadMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id argument is required and must be a string"), nil
	}
	threadID, err := request.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError("thread_id argument is required and must be a string"), nil
	}

	thread, messages, err := h.history.Thread(ctx, userID, threadID)
	if err != nil {
		return h.toolError("failed to get thread", err), nil
	}

	out := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		out = append(out, map[string]interface{}{
			"role":       string(m.Role),
			"content":    m.Content,
			"created_at": m.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	return jsonResult(map[string]interface{}{
		"thread_id": thread.ThreadID,
		"persona":   thread.Persona,
		"messages":  out,
	})
}

// ListPersonas handles the list_personas tool
func (h *Handlers) ListPersonas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := persona.All()
	out := make([]map[string]interface{}, 0, len(all))
	for _, p := range all {
		out = append(out, map[string]interface{}{
			"id":           p.ID,
			"display_name": p.DisplayName,
			"default":      p.ID == persona.Default,
		})
	}

	return jsonResult(map[string]interface{}{
		"personas": out,
	})
}

// toolError turns a domain error into a tool error without leaking
// internal failure details
func (h *Handlers) toolError(action string, err error) *mcp.CallToolResult {
	switch {
	case models.IsValidation(err):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
	case models.IsNotFound(err):
		return mcp.NewToolResultError(fmt.Sprintf("%s: not found", action))
	case models.IsUnavailable(err):
		h.logger.Warn(action, zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("%s: service temporarily unavailable", action))
	default:
		h.logger.Error(action, zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("%s: internal error", action))
	}
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
