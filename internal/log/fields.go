package log

import (
	"log/slog"

	"paysched/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldPaymentID  = "payment_id"
	FieldPayee      = "payee"
	FieldAmount     = "amount"
	FieldDueDate    = "due_date"
	FieldStatus     = "status"
	FieldVersion    = "version"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentDocuments = "documents"
)

// Payment groups the identifying fields of p under a "payment" key.
func Payment(p core.Payment) slog.Attr {
	return slog.Group("payment",
		slog.Int64("id", p.ID),
		slog.String(FieldPayee, p.PayeeName),
		slog.Int64(FieldAmount, int64(p.Amount)),
		slog.String(FieldDueDate, p.DueDate.String()),
		slog.String(FieldStatus, string(p.Status)),
		slog.Int64(FieldVersion, p.Version),
	)
}
