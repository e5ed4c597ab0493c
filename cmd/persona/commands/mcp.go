// ABOUTME: MCP command starts the Model Context Protocol server on stdio
// ABOUTME: Lets LLM agents hold persona conversations through tools
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the persona chat backend as an MCP (Model Context Protocol) server
on stdio. Agents get the chat, list_threads, get_thread_messages, and
list_personas tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  persona mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "persona": {
  #       "command": "persona",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	server := a.MCPServer(versionInfo.Version)
	a.Logger.Info("mcp server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
