// ABOUTME: Runs an HTTP server until the context is cancelled
// ABOUTME: Shared by the persona serve command and the container entry point
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server is the part of api.Server that Serve drives
type Server interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// Serve runs srv on addr until ctx is cancelled or the listener fails, then
// shuts it down within shutdownTimeout
func Serve(ctx context.Context, srv Server, addr string, shutdownTimeout time.Duration, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr))
		return srv.Start(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return g.Wait()
}
