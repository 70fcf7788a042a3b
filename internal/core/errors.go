package core

import (
	"errors"
	"fmt"
)

// Kind sentinels. Use errors.Is(err, ErrValidation) or errors.Is(err, ErrNotFound)
// to classify any error returned by this module.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("payment not found")
)

// Field-level reasons carried inside a ValidationError.
var (
	ErrEmptyPayee        = errors.New("payee name cannot be empty")
	ErrTooLong           = errors.New("value too long")
	ErrNegativeAmount    = errors.New("amount must be zero or positive")
	ErrMissingDate       = errors.New("date is required")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrUnknownType       = errors.New("unknown payment type")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
	ErrUnknownSortKey    = errors.New("unknown sort key")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrEmptyReason       = errors.New("deferral reason cannot be empty")
	ErrStrayDeferral     = errors.New("deferral fields set on a payment that is not deferred")
)

// ValidationError reports malformed input or an illegal state change.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an id that is absent from the partition an operation targets.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("payment %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError for id.
func NotFound(id int64) error {
	return &NotFoundError{ID: id}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Invalid builds a ValidationError for callers outside the package, such as
// request parsers that reject a field before it reaches the domain.
func Invalid(field string, err error) error {
	return invalid(field, err)
}
