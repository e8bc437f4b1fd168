// Package cli provides the initialization shared by every fintrack command:
// environment, configuration, logging, storage and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/store"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(cfg.LoggerConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles what a command needs after startup.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Location *time.Location
	Repo     *repository.Repository

	backend *backend.BackendResult
}

// Open loads .env and configuration, opens the configured backend and loads
// the repository from it.
func Open(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	repo := repository.Open(ctx, store.NewTransactionStore(res.Slot), repository.WithLogger(logger))

	logger.WithComponent(log.ComponentCLI).DebugContext(ctx, "Application started",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, bcfg.Type,
		log.FieldCount, repo.Len(),
		"timezone", loc.String())

	return &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Repo:     repo,
		backend:  res,
	}, nil
}

// Close flushes the repository and releases the backend. The returned
// error reports a failed final write.
func (a *App) Close(ctx context.Context) error {
	err := a.Repo.Close(ctx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "Failed to flush transactions", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
	if cerr := a.backend.Close(); cerr != nil {
		a.Logger.ErrorContext(ctx, "Failed to close backend", log.FieldError, cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// stop function releases the signal handler.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
