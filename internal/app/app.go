// ABOUTME: Wires configuration into the store, cache, generator, and turn executor
// ABOUTME: Shared by the HTTP server, the MCP server, and the CLI commands
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/persona-chat/internal/api"
	"github.com/harper/persona-chat/internal/cache"
	"github.com/harper/persona-chat/internal/config"
	"github.com/harper/persona-chat/internal/core"
	"github.com/harper/persona-chat/internal/llm"
	"github.com/harper/persona-chat/internal/mcp"
	"github.com/harper/persona-chat/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// App holds the long-lived components of one process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     storage.Store
	Cache     cache.Cache
	Generator llm.Generator
	Executor  *core.Executor
	History   *core.History
}

// New opens the store and cache and builds the executor. Close releases
// everything New acquired.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}

	c, err := cache.New(cfg.Cache, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	gen, err := llm.New(cfg.LLM)
	if err != nil {
		_ = c.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to build generator: %w", err)
	}

	return NewWithComponents(cfg, logger, store, c, gen), nil
}

// NewWithComponents builds an App around already-constructed parts
func NewWithComponents(cfg *config.Config, logger *zap.Logger, store storage.Store, c cache.Cache, gen llm.Generator) *App {
	executor := core.NewExecutor(core.ExecutorConfig{
		Store:             store,
		Router:            core.NewRouter(store, nil, logger),
		Checkpointer:      core.NewCheckpointer(store, c, cfg.Chat.CheckpointRetention, logger),
		Builder:           core.NewContextBuilder(cfg.Chat.MaxHistoryMessages, cfg.Chat.MaxContextTokens),
		Generator:         gen,
		MaxMessageLength:  cfg.Chat.MaxMessageLength,
		GenerationTimeout: cfg.LLM.Timeout,
		Logger:            logger,
	})

	logger.Info("application ready",
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Cache:     c,
		Generator: gen,
		Executor:  executor,
		History:   core.NewHistory(store),
	}
}

// HTTPServer builds the HTTP API for this app
func (a *App) HTTPServer(version string) *api.Server {
	return api.NewServer(api.Config{
		Turns:       a.Executor,
		History:     a.History,
		Store:       a.Store,
		CORSOrigins: a.Config.Server.CORSOrigins,
		Version:     version,
		Logger:      a.Logger,
	})
}

// MCPServer builds the MCP tool server for this app
func (a *App) MCPServer(version string) *mcpserver.MCPServer {
	return mcp.NewServer(version, a.Executor, a.History, a.Logger)
}

// Close releases the cache and the store
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
