// cmd/harvester/serve.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github-heat-harvester/internal/api"
	"github-heat-harvester/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may finish after a
// shutdown signal.
const shutdownTimeout = 5 * time.Second

// serveAPI runs the read API over the harvested dataset until the context
// is cancelled, then shuts the server down gracefully.
func serveAPI(ctx context.Context, st store.Store, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(st, logger),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
