// ABOUTME: Tests for the MCP tool handlers against an in-memory store
// ABOUTME: Verifies tool results and that failures come back as tool errors
package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/harper/persona-chat/internal/core"
	"github.com/harper/persona-chat/internal/llm"
	"github.com/harper/persona-chat/internal/persona"
	"github.com/harper/persona-chat/internal/storage/sqldb"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	store, err := sqldb.NewStorageInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zaptest.NewLogger(t)
	exec := core.NewExecutor(core.ExecutorConfig{
		Store:             store,
		Router:            core.NewRouter(store, nil, logger),
		Checkpointer:      core.NewCheckpointer(store, nil, 5, logger),
		Generator:         llm.NewMockClient(),
		GenerationTimeout: time.Second,
		Logger:            logger,
	})

	server := mcpserver.NewMCPServer("test", "0.0.0")
	return RegisterTools(server, exec, core.NewHistory(store), logger)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "unexpected tool error: %v", res.Content)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestChatTool(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.Chat(ctx, callRequest("chat", map[string]any{"user_id": "alice", "message": "hello"}))
	require.NoError(t, err)
	first := resultJSON(t, res)
	assert.Equal(t, persona.Default, first["persona"])
	assert.Equal(t, "new_thread_first", first["scenario"])

	res, err = h.Chat(ctx, callRequest("chat", map[string]any{
		"user_id":   "alice",
		"message":   "act like a mentor",
		"thread_id": first["thread_id"],
	}))
	require.NoError(t, err)
	second := resultJSON(t, res)
	assert.Equal(t, persona.Mentor, second["persona"])
	assert.NotEqual(t, first["thread_id"], second["thread_id"])
}

func TestChatToolRequiresArguments(t *testing.T) {
	h := newTestHandlers(t)

	res, err := h.Chat(context.Background(), callRequest("chat", map[string]any{"user_id": "alice"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.Chat(context.Background(), callRequest("chat", map[string]any{"user_id": "alice", "message": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestThreadTools(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.Chat(ctx, callRequest("chat", map[string]any{"user_id": "alice", "message": "hello"}))
	require.NoError(t, err)
	threadID := resultJSON(t, res)["thread_id"]

	res, err = h.ListThreads(ctx, callRequest("list_threads", map[string]any{"user_id": "alice"}))
	require.NoError(t, err)
	threads := resultJSON(t, res)["threads"].([]any)
	require.Len(t, threads, 1)
	assert.Equal(t, threadID, threads[0].(map[string]any)["thread_id"])

	res, err = h.GetThreadMessages(ctx, callRequest("get_thread_messages", map[string]any{
		"user_id":   "alice",
		"thread_id": threadID,
	}))
	require.NoError(t, err)
	messages := resultJSON(t, res)["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])

	// Another user's thread is not visible
	res, err = h.GetThreadMessages(ctx, callRequest("get_thread_messages", map[string]any{
		"user_id":   "bob",
		"thread_id": threadID,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListPersonasTool(t *testing.T) {
	h := newTestHandlers(t)

	res, err := h.ListPersonas(context.Background(), callRequest("list_personas", nil))
	require.NoError(t, err)
	personas := resultJSON(t, res)["personas"].([]any)
	assert.Len(t, personas, len(persona.IDs()))
}
