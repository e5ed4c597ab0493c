// ABOUTME: MCP tool definitions and registration for the persona chat server
// ABOUTME: Exposes chat turns, thread listings, and the persona catalogue as tools
package mcp

import (
	"github.com/harper/persona-chat/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// NewServer creates an MCP server with every tool registered
func NewServer(version string, executor *core.Executor, history *core.History, logger *zap.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer("Persona Chat", version)
	RegisterTools(server, executor, history, logger)
	return server
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, executor *core.Executor, history *core.History, logger *zap.Logger) *Handlers {
	handlers := &Handlers{
		executor: executor,
		history:  history,
		logger:   logger.Named("mcp"),
	}

	// 1. chat - run one turn through the router and the active persona
	server.AddTool(mcp.Tool{
		Name:        "chat",
		Description: "Send a message as a user. The message is routed to the right persona thread (switching personas on cues like 'act like an investor') and the persona's reply is returned.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the user",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The user's message",
				},
				"thread_id": map[string]interface{}{
					"type":        "string",
					"description": "Thread the user is currently in, as returned by a previous chat call",
				},
			},
			Required: []string{"user_id", "message"},
		},
	}, handlers.Chat)

	// 2. list_threads - every thread for a user, most recent first
	server.AddTool(mcp.Tool{
		Name:        "list_threads",
		Description: "List a user's conversation threads with their personas, most recently active first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the user",
				},
			},
			Required: []string{"user_id"},
		},
	}, handlers.ListThreads)

	// 3. get_thread_messages - full message history of one thread
	server.AddTool(mcp.Tool{
		Name:        "get_thread_messages",
		Description: "Get every message of one of the user's threads in order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Stable identifier of the user",
				},
				"thread_id": map[string]interface{}{
					"type":        "string",
					"description": "Thread to read",
				},
			},
			Required: []string{"user_id", "thread_id"},
		},
	}, handlers.GetThreadMessages)

	// 4. list_personas - the persona catalogue
	server.AddTool(mcp.Tool{
		Name:        "list_personas",
		Description: "List the personas a conversation can be routed to.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListPersonas)

	return handlers
}
