package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"paysched/internal/amqp"
	"paysched/internal/core"
	"paysched/internal/sheets"
	"paysched/internal/store"
)

type (
	// Consumer feeds payment events to a handler until ctx ends.
	Consumer interface {
		Consume(ctx context.Context, handler func(context.Context, *amqp.PaymentEvent) error) error
	}

	Recorder interface {
		RecordExport(action string, err error)
		RecordConsumed(kind string, err error)
	}
)

// ReconcileResult summarizes one reconcile pass.
type ReconcileResult struct {
	Written int
	Removed int
	Skipped int
	Failed  int
}

// ExportWorker mirrors the active payments into a ledger. Events are treated as
// hints: the worker always reads the current record, so replays and reordering
// converge on the same ledger.
type ExportWorker struct {
	repo     store.Repository
	ledger   sheets.Ledger
	recorder Recorder
	interval time.Duration
}

func NewExportWorker(repo store.Repository, ledger sheets.Ledger, recorder Recorder, interval time.Duration) *ExportWorker {
	return &ExportWorker{repo: repo, ledger: ledger, recorder: recorder, interval: interval}
}

// HandleEvent brings the ledger row of ev.ID in line with the store.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.PaymentEvent) error {
	slog.InfoContext(ctx, "Processing payment event", "id", ev.ID, "kind", ev.Kind, "version", ev.Version)
	err := w.handle(ctx, ev)
	if w.recorder != nil {
		w.recorder.RecordConsumed(string(ev.Kind), err)
	}
	return err
}

func (w *ExportWorker) handle(ctx context.Context, ev *amqp.PaymentEvent) error {
	if ev.Kind == amqp.EventPurged {
		return w.remove(ctx, ev.ID)
	}
	p, err := w.repo.Get(ctx, ev.ID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return w.remove(ctx, ev.ID)
	case err != nil:
		return fmt.Errorf("get payment %d: %w", ev.ID, err)
	case p.Trashed():
		return w.remove(ctx, ev.ID)
	}
	return w.upsert(ctx, p)
}

// Reconcile compares the whole store with the ledger, writing stale or missing
// rows and removing rows with no active payment behind them.
func (w *ExportWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	versions, err := w.ledger.Versions(ctx)
	if err != nil {
		return res, fmt.Errorf("read ledger: %w", err)
	}
	seq, err := w.repo.List(ctx, core.Filter{})
	if err != nil {
		return res, fmt.Errorf("list payments: %w", err)
	}

	active := make(map[int64]bool)
	for p := range seq {
		active[p.ID] = true
		if v, ok := versions[p.ID]; ok && v == p.Version {
			res.Skipped++
			continue
		}
		if err := w.upsert(ctx, p); err != nil {
			res.Failed++
			continue
		}
		res.Written++
	}
	for id := range versions {
		if active[id] {
			continue
		}
		if err := w.remove(ctx, id); err != nil {
			res.Failed++
			continue
		}
		res.Removed++
	}

	slog.InfoContext(ctx, "Ledger reconcile completed",
		"written", res.Written,
		"removed", res.Removed,
		"skipped", res.Skipped,
		"failed", res.Failed)
	if res.Failed > 0 {
		return res, fmt.Errorf("reconcile: %d rows failed", res.Failed)
	}
	return res, nil
}

// Run reconciles once, then consumes events and reconciles periodically until
// ctx ends or the consumer gives up.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	if _, err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconcile failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.Consume(ctx, w.HandleEvent)
		})
	}
	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if _, err := w.Reconcile(ctx); err != nil {
						slog.ErrorContext(ctx, "Periodic reconcile failed", "error", err)
					}
				}
			}
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *ExportWorker) upsert(ctx context.Context, p core.Payment) error {
	ref, err := w.ledger.Upsert(ctx, p)
	w.record("upsert", err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to write ledger row", "id", p.ID, "error", err)
		return fmt.Errorf("upsert ledger row %d: %w", p.ID, err)
	}
	slog.DebugContext(ctx, "Ledger row up to date", "id", p.ID, "version", p.Version, "ref", ref)
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, id int64) error {
	err := w.ledger.Remove(ctx, id)
	w.record("remove", err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to remove ledger row", "id", id, "error", err)
		return fmt.Errorf("remove ledger row %d: %w", id, err)
	}
	return nil
}

func (w *ExportWorker) record(action string, err error) {
	if w.recorder != nil {
		w.recorder.RecordExport(action, err)
	}
}
