// ABOUTME: Echo HTTP server exposing chat turns, history, and health
// ABOUTME: Wires CORS, panic recovery, zap request logging, and error mapping
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/harper/persona-chat/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// TurnHandler runs one conversational turn
type TurnHandler interface {
	HandleTurn(ctx context.Context, req models.TurnRequest) (*models.TurnResult, error)
}

// HistoryReader lists a user's threads and messages
type HistoryReader interface {
	Threads(ctx context.Context, userID string) ([]*models.Thread, error)
	Thread(ctx context.Context, userID, threadID string) (*models.Thread, []*models.Message, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server's collaborators and settings
type Config struct {
	Turns       TurnHandler
	History     HistoryReader
	Store       Pinger
	CORSOrigins []string
	Version     string
	Logger      *zap.Logger
}

// Server is the HTTP boundary in front of the turn executor
type Server struct {
	echo    *echo.Echo
	turns   TurnHandler
	history HistoryReader
	store   Pinger
	version string
	logger  *zap.Logger
}

// NewServer creates a Server with its routes and middleware registered
func NewServer(cfg Config) *Server {
	logger := cfg.Logger.Named("api")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		turns:   cfg.Turns,
		history: cfg.History,
		store:   cfg.Store,
		version: cfg.Version,
		logger:  logger,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s.RegisterRoutes(e)
	return s
}

// RegisterRoutes registers routes with the echo server
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Root)
	e.GET("/health", s.Health)

	api := e.Group("/api")
	api.POST("/chat", s.Chat)
	api.GET("/chat_history", s.ChatHistory)
	api.GET("/personas", s.Personas)
}

// ServeHTTP lets the server be mounted or driven by httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.echo.Shutdown(ctx)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
