// ABOUTME: Flag-less HTTP entry point for containers
// ABOUTME: Reads configuration from PERSONA_CONFIG and the environment, then serves the chat API
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/persona-chat/internal/app"
	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Version information (set by goreleaser)
var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load(os.Getenv("PERSONA_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("error during shutdown", zap.Error(err))
		}
	}()

	return app.Serve(ctx, a.HTTPServer(version), cfg.Server.Addr, cfg.Server.ShutdownTimeout, logger)
}
