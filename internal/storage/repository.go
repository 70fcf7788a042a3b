package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"paysched/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection serialises writers; reads are snapshotted before returning
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, d core.Draft, now time.Time) (core.Payment, error) {
	p := d.Payment()
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	p.CreatedAt = now.UTC()
	p.UpdatedAt = p.CreatedAt
	p.Version = 1

	row, err := r.queries.CreatePayment(ctx, toRow(p))
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	created, err := fromRow(row)
	if err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", created.ID,
		"payee", created.PayeeName,
		"amount", created.Amount,
		"due_date", created.DueDate.String())
	return created, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Payment, error) {
	row, err := r.queries.GetPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, core.NotFound(id)
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %d: %w", id, err)
	}
	return fromRow(row)
}

// Update performs the read-modify-write inside one transaction.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, mutate func(*core.Payment) error, now time.Time) (core.Payment, error) {
	var out core.Payment
	err := r.inTx(ctx, func(q *Queries) error {
		row, err := q.GetPayment(ctx, id)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && row.DeletedAt.Valid) {
			return core.NotFound(id)
		}
		if err != nil {
			return fmt.Errorf("get payment %d: %w", id, err)
		}
		cur, err := fromRow(row)
		if err != nil {
			return err
		}

		next := cur.Clone()
		if err := mutate(&next); err != nil {
			return err
		}
		next.ID, next.CreatedAt, next.DeletedAt = cur.ID, cur.CreatedAt, nil
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = now.UTC()
		next.Version = cur.Version + 1

		n, err := q.UpdatePayment(ctx, toRow(next))
		if err != nil {
			return fmt.Errorf("update payment %d: %w", id, err)
		}
		if n == 0 {
			return core.NotFound(id)
		}
		out = next
		return nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	slog.DebugContext(ctx, "Payment updated", "id", out.ID, "status", out.Status, "version", out.Version)
	return out, nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, now time.Time) (core.Payment, error) {
	var out core.Payment
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.TrashPayment(ctx, id, now.UTC().UnixNano())
		if err != nil {
			return fmt.Errorf("trash payment %d: %w", id, err)
		}
		if n == 0 {
			return core.NotFound(id)
		}
		row, err := q.GetPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("get payment %d: %w", id, err)
		}
		out, err = fromRow(row)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) Restore(ctx context.Context, id int64) (core.Payment, error) {
	var out core.Payment
	err := r.inTx(ctx, func(q *Queries) error {
		n, err := q.RestorePayment(ctx, id)
		if err != nil {
			return fmt.Errorf("restore payment %d: %w", id, err)
		}
		if n == 0 {
			return core.NotFound(id)
		}
		row, err := q.GetPayment(ctx, id)
		if err != nil {
			return fmt.Errorf("get payment %d: %w", id, err)
		}
		out, err = fromRow(row)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) HardDelete(ctx context.Context, id int64) error {
	n, err := r.queries.PurgePayment(ctx, id)
	if err != nil {
		return fmt.Errorf("purge payment %d: %w", id, err)
	}
	if n == 0 {
		return core.NotFound(id)
	}
	slog.InfoContext(ctx, "Payment permanently deleted", "id", id)
	return nil
}

// List pushes stored-status equality down to SQL; search and derived statuses
// are matched in Go so case folding follows Unicode rules.
func (r *SQLiteRepository) List(ctx context.Context, f core.Filter) (iter.Seq[core.Payment], error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	params := ListPaymentsParams{}
	if f.Status != nil && f.Today.IsZero() {
		params.Status = string(*f.Status)
	}
	snapshot, err := r.load(ctx, params)
	if err != nil {
		return nil, err
	}
	return f.Apply(snapshot), nil
}

func (r *SQLiteRepository) Trash(ctx context.Context) (iter.Seq[core.Payment], error) {
	snapshot, err := r.load(ctx, ListPaymentsParams{Trashed: true})
	if err != nil {
		return nil, err
	}
	return slices.Values(snapshot), nil
}

// Counts returns the size of both partitions.
func (r *SQLiteRepository) Counts(ctx context.Context) (active, trashed int64, err error) {
	return r.queries.CountPayments(ctx)
}

func (r *SQLiteRepository) load(ctx context.Context, params ListPaymentsParams) ([]core.Payment, error) {
	rows, err := r.queries.ListPayments(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
