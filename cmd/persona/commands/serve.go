// ABOUTME: Serve command runs the HTTP API until interrupted
// ABOUTME: Listens on --addr or the configured address with graceful shutdown on signals
package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/persona-chat/internal/app"
	"github.com/spf13/cobra"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		Long: `Run the HTTP chat API.

Endpoints:
  POST /api/chat           {user_id, message, thread_id?}
  GET  /api/chat_history   ?user_id=&thread_id=
  GET  /api/personas
  GET  /health`,
		Example: `  persona serve
  persona serve --addr :9000
  LLM_PROVIDER=mock persona serve`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	addr := a.Config.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	return app.Serve(ctx, a.HTTPServer(versionInfo.Version), addr, a.Config.Server.ShutdownTimeout, a.Logger)
}
