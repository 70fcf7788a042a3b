// Package backend assembles the payment service from configuration.
package backend

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"paysched/internal/amqp"
	"paysched/internal/config"
	"paysched/internal/core"
	"paysched/internal/documents"
	"paysched/internal/metrics"
	"paysched/internal/services"
	"paysched/internal/storage"
	"paysched/internal/store"
	"paysched/internal/store/memory"
)

// Result is everything the HTTP server needs from the backend.
type Result struct {
	Service    *services.PaymentService
	Repository store.Repository
	Documents  *documents.LocalStore
	// Ready reports whether the store can serve requests.
	Ready func(ctx context.Context) error
}

type Factory struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewFactory(logger *slog.Logger, m *metrics.Metrics) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger, metrics: m}
}

// OpenRepository opens the store selected by DATA_BACKEND.
func (f *Factory) OpenRepository(cfg *config.Config) (store.Repository, func(context.Context) error, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Ping, nil
	case config.BackendMemory:
		f.logger.Info("Initialized memory backend")
		return memory.New(), func(context.Context) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// Build wires the repository, document store and optional AMQP publisher into a
// PaymentService. A broker that cannot be reached is logged and skipped.
func (f *Factory) Build(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, ready, err := f.OpenRepository(cfg)
	if err != nil {
		return nil, err
	}

	docs, err := documents.NewLocalStore(documents.Config{
		Dir:      cfg.UploadDir,
		MaxBytes: cfg.UploadMaxBytes,
	}, f.metrics)
	if err != nil {
		repo.Close()
		return nil, err
	}

	loc := cfg.Location()
	opts := []services.Option{
		services.WithDocuments(docs),
		services.WithRecorder(f.metrics),
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			opts = append(opts, services.WithPublisher(client))
		}
	}

	if cfg.SeedDemo {
		if err := SeedIfEmpty(ctx, repo, time.Now().In(loc)); err != nil {
			repo.Close()
			return nil, err
		}
	}

	return &Result{
		Service:    services.NewPaymentService(repo, opts...),
		Repository: repo,
		Documents:  docs,
		Ready:      ready,
	}, nil
}

// SeedIfEmpty loads the demo payments unless the store already holds records
// in either partition.
func SeedIfEmpty(ctx context.Context, repo store.Repository, now time.Time) error {
	active, err := repo.List(ctx, core.Filter{})
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	trash, err := repo.Trash(ctx)
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if hasAny(active) || hasAny(trash) {
		slog.InfoContext(ctx, "Store not empty, skipping demo data")
		return nil
	}
	if err := store.SeedDemo(ctx, repo, now); err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	slog.InfoContext(ctx, "Demo data loaded")
	return nil
}

func hasAny(seq iter.Seq[core.Payment]) bool {
	for range seq {
		return true
	}
	return false
}
