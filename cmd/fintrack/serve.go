package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("serve", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(ctx, func(app *cli.App) error {
		insights, insightCache, err := insightService(ctx, app)
		if err != nil {
			return err
		}
		caches := cache.NewManager(app.Logger)
		caches.Register(insightCache)
		caches.StartCleanup(cacheCleanupInterval)
		defer caches.Stop()

		srv := apphttp.NewServer(":"+app.Config.Port, transactionService(app), insights, apphttp.Options{
			RateLimitPerMinute: app.Config.RateLimitPerMinute,
			Logger:             app.Logger,
		})

		sigCtx, stop := cli.GracefulShutdown(app.Logger)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			defer close(errCh)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		app.Logger.Info("Starting fintrack server",
			"port", app.Config.Port,
			log.FieldBackend, app.Config.DataBackend,
			"ai_enabled", app.Config.AIEnabled())

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-sigCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server shutdown error", log.FieldError, err)
		}
		app.Logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
		return nil
	})
}
