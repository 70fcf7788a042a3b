// Package cli holds the start-up steps shared by cmd/paysched and cmd/paysched-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paysched/internal/config"
	"paysched/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is ignored.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, installs the default logger at the
// configured level and exits the process when the configuration is invalid.
func LoadAndValidateConfig(component string) (*config.Config, *slog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Setup(log.Config{Level: slog.LevelInfo, Component: component}).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := log.Setup(log.Config{Level: level, Component: component})
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup runs
// after cancellation with a context bounded by timeout; done closes when it returns.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
