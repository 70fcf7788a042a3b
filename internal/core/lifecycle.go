package core

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// statusTransitions maps a stored status to the statuses SetStatus may write next.
// deferred is reached only through Defer and left only through MarkPending;
// overdue is never written, it is derived by EffectiveStatus.
var statusTransitions = map[Status][]Status{
	StatusUpcoming: {StatusPending, StatusPaid},
	StatusPending:  {StatusUpcoming, StatusPaid},
	StatusOverdue:  {StatusPending, StatusPaid},
	StatusPaid:     {StatusPending},
	StatusDeferred: {},
}

// CanTransition reports whether SetStatus accepts from -> to.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid() && from != StatusDeferred
	}
	return slices.Contains(statusTransitions[from], to)
}

// EffectiveStatus is the status shown to users on day today: an upcoming or pending
// payment whose due date has passed reads as overdue.
func EffectiveStatus(p Payment, today Date) Status {
	if (p.Status == StatusUpcoming || p.Status == StatusPending) && p.DueDate.Before(today.Time) {
		return StatusOverdue
	}
	return p.Status
}

// WithEffectiveStatus yields each payment with Status replaced by its effective status.
// The underlying records are not modified.
func WithEffectiveStatus(seq iter.Seq[Payment], today Date) iter.Seq[Payment] {
	return func(yield func(Payment) bool) {
		for p := range seq {
			p.Status = EffectiveStatus(p, today)
			if !yield(p) {
				return
			}
		}
	}
}

// SetStatus applies an ordinary status change.
func SetStatus(p *Payment, to Status) error {
	if !to.Valid() {
		return invalid("status", ErrUnknownStatus)
	}
	if !CanTransition(p.Status, to) {
		return invalid("status", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to))
	}
	p.Status = to
	return nil
}

// Defer postpones any payment that is not already deferred. The current due date is
// kept as the original due date.
func Defer(p *Payment, planned Date, reason string) error {
	if p.Status == StatusDeferred {
		return invalid("status", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusDeferred))
	}
	if planned.IsZero() {
		return invalid("planned_payment_date", ErrMissingDate)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return invalid("deferred_reason", ErrEmptyReason)
	}
	p.OriginalDueDate = p.DueDate
	p.PlannedPaymentDate = planned
	p.DeferredReason = reason
	p.Status = StatusDeferred
	return nil
}

// MarkPending brings a deferred payment back to the schedule at its original due date.
func MarkPending(p *Payment) error {
	if p.Status != StatusDeferred {
		return invalid("status", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, StatusPending))
	}
	if !p.OriginalDueDate.IsZero() {
		p.DueDate = p.OriginalDueDate
	}
	p.OriginalDueDate = Date{}
	p.PlannedPaymentDate = Date{}
	p.DeferredReason = ""
	p.Status = StatusPending
	return nil
}

// Reschedule moves the planned payment date of a deferred payment.
func Reschedule(p *Payment, planned Date) error {
	if p.Status != StatusDeferred {
		return invalid("status", fmt.Errorf("%w: reschedule requires %s, got %s", ErrInvalidTransition, StatusDeferred, p.Status))
	}
	if planned.IsZero() {
		return invalid("planned_payment_date", ErrMissingDate)
	}
	p.PlannedPaymentDate = planned
	return nil
}
