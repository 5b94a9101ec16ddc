package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// listenAndServe runs server until ctx is cancelled (Ctrl+C) or it fails.
func listenAndServe(ctx context.Context, server *http.Server, name string) error {
	serverErr := make(chan error, 1)
	go func() {
		slog.Info(name+" available", "addr", server.Addr, "url", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		// Give server 5 seconds to shut down gracefully
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "err", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
