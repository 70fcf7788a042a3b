package storage

import (
	"context"
	"database/sql"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type PaymentRow struct {
	ID                  int64
	PayeeName           string
	Amount              int64
	DueDate             string
	PaymentType         string
	PaymentMethod       string
	Status              string
	Notes               string
	DocumentPath        sql.NullString
	DocumentName        sql.NullString
	DocumentContentType sql.NullString
	DocumentSize        sql.NullInt64
	OriginalDueDate     sql.NullString
	PlannedPaymentDate  sql.NullString
	DeferredReason      string
	CreatedAt           int64
	UpdatedAt           int64
	DeletedAt           sql.NullInt64
	Version             int64
}

const paymentColumns = `id, payee_name, amount, due_date, payment_type, payment_method, status, notes,
	document_path, document_name, document_content_type, document_size,
	original_due_date, planned_payment_date, deferred_reason,
	created_at, updated_at, deleted_at, version`

func scanPayment(sc interface{ Scan(...any) error }) (PaymentRow, error) {
	var r PaymentRow
	err := sc.Scan(
		&r.ID, &r.PayeeName, &r.Amount, &r.DueDate, &r.PaymentType, &r.PaymentMethod, &r.Status, &r.Notes,
		&r.DocumentPath, &r.DocumentName, &r.DocumentContentType, &r.DocumentSize,
		&r.OriginalDueDate, &r.PlannedPaymentDate, &r.DeferredReason,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt, &r.Version,
	)
	return r, err
}

const createPayment = `INSERT INTO payments (
	payee_name, amount, due_date, payment_type, payment_method, status, notes,
	document_path, document_name, document_content_type, document_size,
	original_due_date, planned_payment_date, deferred_reason,
	created_at, updated_at, deleted_at, version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + paymentColumns

func (q *Queries) CreatePayment(ctx context.Context, r PaymentRow) (PaymentRow, error) {
	row := q.db.QueryRowContext(ctx, createPayment,
		r.PayeeName, r.Amount, r.DueDate, r.PaymentType, r.PaymentMethod, r.Status, r.Notes,
		r.DocumentPath, r.DocumentName, r.DocumentContentType, r.DocumentSize,
		r.OriginalDueDate, r.PlannedPaymentDate, r.DeferredReason,
		r.CreatedAt, r.UpdatedAt, r.DeletedAt, r.Version,
	)
	return scanPayment(row)
}

const getPayment = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

func (q *Queries) GetPayment(ctx context.Context, id int64) (PaymentRow, error) {
	return scanPayment(q.db.QueryRowContext(ctx, getPayment, id))
}

const updatePayment = `UPDATE payments SET
	payee_name = ?, amount = ?, due_date = ?, payment_type = ?, payment_method = ?, status = ?, notes = ?,
	document_path = ?, document_name = ?, document_content_type = ?, document_size = ?,
	original_due_date = ?, planned_payment_date = ?, deferred_reason = ?,
	updated_at = ?, version = ?
WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) UpdatePayment(ctx context.Context, r PaymentRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePayment,
		r.PayeeName, r.Amount, r.DueDate, r.PaymentType, r.PaymentMethod, r.Status, r.Notes,
		r.DocumentPath, r.DocumentName, r.DocumentContentType, r.DocumentSize,
		r.OriginalDueDate, r.PlannedPaymentDate, r.DeferredReason,
		r.UpdatedAt, r.Version, r.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const trashPayment = `UPDATE payments SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) TrashPayment(ctx context.Context, id, deletedAt int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, trashPayment, deletedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const restorePayment = `UPDATE payments SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`

func (q *Queries) RestorePayment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, restorePayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const purgePayment = `DELETE FROM payments WHERE id = ? AND deleted_at IS NOT NULL`

func (q *Queries) PurgePayment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, purgePayment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type ListPaymentsParams struct {
	Trashed bool
	// Status narrows by stored status when non-empty.
	Status string
}

func (q *Queries) ListPayments(ctx context.Context, arg ListPaymentsParams) ([]PaymentRow, error) {
	var (
		where []string
		args  []any
	)
	if arg.Trashed {
		where = append(where, "deleted_at IS NOT NULL")
	} else {
		where = append(where, "deleted_at IS NULL")
	}
	if arg.Status != "" {
		where = append(where, "status = ?")
		args = append(args, arg.Status)
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + strings.Join(where, " AND ")
	if arg.Trashed {
		query += ` ORDER BY deleted_at DESC, id ASC`
	} else {
		query += ` ORDER BY id ASC`
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentRow
	for rows.Next() {
		r, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPayments = `SELECT
	COALESCE(SUM(CASE WHEN deleted_at IS NULL THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN deleted_at IS NOT NULL THEN 1 ELSE 0 END), 0)
FROM payments`

func (q *Queries) CountPayments(ctx context.Context) (active, trashed int64, err error) {
	err = q.db.QueryRowContext(ctx, countPayments).Scan(&active, &trashed)
	return active, trashed, err
}
