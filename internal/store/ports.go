// Package store defines the persistence port for payment records.
package store

import (
	"context"
	"iter"
	"time"

	"paysched/internal/core"
)

// Ports implemented by the memory and SQLite backends.
type (
	// Repository owns the active and trash partitions of payment records.
	// Every method is all-or-nothing: on error nothing was written.
	Repository interface {
		// Create inserts a new active payment with a never-issued id and status upcoming.
		Create(ctx context.Context, d core.Draft, now time.Time) (core.Payment, error)
		// Get returns the payment from either partition; DeletedAt tells which.
		Get(ctx context.Context, id int64) (core.Payment, error)
		// Update runs mutate on a copy of the active payment and stores the result
		// after re-validation. An error from mutate aborts the update.
		Update(ctx context.Context, id int64, mutate func(*core.Payment) error, now time.Time) (core.Payment, error)
		SoftDelete(ctx context.Context, id int64, now time.Time) (core.Payment, error)
		Restore(ctx context.Context, id int64) (core.Payment, error)
		HardDelete(ctx context.Context, id int64) error

		// List returns the active payments matching f as a snapshot taken at call time.
		List(ctx context.Context, f core.Filter) (iter.Seq[core.Payment], error)
		// Trash returns trashed payments, most recently deleted first.
		Trash(ctx context.Context) (iter.Seq[core.Payment], error)

		Close() error
	}
)

