package storage

import (
	"database/sql"
	"fmt"
	"time"

	"paysched/internal/core"
)

func toRow(p core.Payment) PaymentRow {
	r := PaymentRow{
		ID:                 p.ID,
		PayeeName:          p.PayeeName,
		Amount:             int64(p.Amount),
		DueDate:            p.DueDate.String(),
		PaymentType:        string(p.Type),
		PaymentMethod:      string(p.Method),
		Status:             string(p.Status),
		Notes:              p.Notes,
		OriginalDueDate:    nullDate(p.OriginalDueDate),
		PlannedPaymentDate: nullDate(p.PlannedPaymentDate),
		DeferredReason:     p.DeferredReason,
		CreatedAt:          p.CreatedAt.UnixNano(),
		UpdatedAt:          p.UpdatedAt.UnixNano(),
		Version:            p.Version,
	}
	if doc := p.Document; doc != nil {
		r.DocumentPath = sql.NullString{String: doc.Path, Valid: true}
		r.DocumentName = sql.NullString{String: doc.Name, Valid: true}
		r.DocumentContentType = sql.NullString{String: doc.ContentType, Valid: doc.ContentType != ""}
		r.DocumentSize = sql.NullInt64{Int64: doc.Size, Valid: true}
	}
	if p.DeletedAt != nil {
		r.DeletedAt = sql.NullInt64{Int64: p.DeletedAt.UnixNano(), Valid: true}
	}
	return r
}

func fromRow(r PaymentRow) (core.Payment, error) {
	due, err := core.ParseDate(r.DueDate)
	if err != nil {
		return core.Payment{}, fmt.Errorf("payment %d: due date %q: %w", r.ID, r.DueDate, err)
	}
	p := core.Payment{
		ID:             r.ID,
		PayeeName:      r.PayeeName,
		Amount:         core.Yen(r.Amount),
		DueDate:        due,
		Type:           core.PaymentType(r.PaymentType),
		Method:         core.PaymentMethod(r.PaymentMethod),
		Status:         core.Status(r.Status),
		Notes:          r.Notes,
		DeferredReason: r.DeferredReason,
		CreatedAt:      time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:      time.Unix(0, r.UpdatedAt).UTC(),
		Version:        r.Version,
	}
	if p.OriginalDueDate, err = parseNullDate(r.OriginalDueDate); err != nil {
		return core.Payment{}, fmt.Errorf("payment %d: original due date: %w", r.ID, err)
	}
	if p.PlannedPaymentDate, err = parseNullDate(r.PlannedPaymentDate); err != nil {
		return core.Payment{}, fmt.Errorf("payment %d: planned payment date: %w", r.ID, err)
	}
	if r.DocumentPath.Valid {
		p.Document = &core.DocumentRef{
			Path:        r.DocumentPath.String,
			Name:        r.DocumentName.String,
			ContentType: r.DocumentContentType.String,
			Size:        r.DocumentSize.Int64,
		}
	}
	if r.DeletedAt.Valid {
		at := time.Unix(0, r.DeletedAt.Int64).UTC()
		p.DeletedAt = &at
	}
	return p, nil
}

func nullDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}
