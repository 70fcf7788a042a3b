package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"paysched/internal/core"
	"paysched/internal/documents"
	"paysched/internal/services"
)

// errBadRequest marks input that could not be decoded at all.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps an error from the service layer onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, documents.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, documents.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// describeError returns the message and offending field shown to clients.
// Internal errors are not echoed back.
func describeError(err error, status int) errorResponse {
	if status == http.StatusInternalServerError {
		return errorResponse{Error: "internal server error"}
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return errorResponse{Error: ve.Error(), Field: ve.Field}
	}
	return errorResponse{Error: err.Error()}
}

func logError(r *http.Request, err error, status int) {
	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", "error", err, "status", status, "url", r.URL.Path)
		return
	}
	slog.DebugContext(ctx, "Request rejected", "error", err, "status", status, "url", r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logError(r, err, status)
	writeJSON(w, status, describeError(err, status))
}
