package core

import (
	"cmp"
	"iter"
	"slices"
	"strings"
)

// SortKey names a List ordering. The empty key keeps insertion (id) order.
type SortKey string

const (
	SortNone    SortKey = ""
	SortID      SortKey = "id"
	SortDueDate SortKey = "due_date"
	SortAmount  SortKey = "amount"
	SortPayee   SortKey = "payee"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortID, SortDueDate, SortAmount, SortPayee:
		return true
	}
	return false
}

// Filter selects active payments for List.
type Filter struct {
	// Status matches the stored status, or the effective status when Today is set.
	Status *Status
	// Search is matched case-insensitively against payee name and notes.
	Search string
	Today  Date
	Sort   SortKey
	Desc   bool
}

func (f Filter) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return invalid("status", ErrUnknownStatus)
	}
	if !f.Sort.Valid() {
		return invalid("sort", ErrUnknownSortKey)
	}
	return nil
}

// Match reports whether p passes the status and search predicates.
func (f Filter) Match(p Payment) bool {
	if f.Status != nil {
		st := p.Status
		if !f.Today.IsZero() {
			st = EffectiveStatus(p, f.Today)
		}
		if st != *f.Status {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.PayeeName), q) && !strings.Contains(strings.ToLower(p.Notes), q) {
			return false
		}
	}
	return true
}

// Apply filters and orders a snapshot held in id order. The returned sequence walks
// its own copy, so it can be ranged over any number of times.
func (f Filter) Apply(snapshot []Payment) iter.Seq[Payment] {
	out := make([]Payment, 0, len(snapshot))
	for _, p := range snapshot {
		if f.Match(p) {
			out = append(out, p.Clone())
		}
	}
	if cmpFn := f.compare(); cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return func(yield func(Payment) bool) {
		for _, p := range out {
			if !yield(p.Clone()) {
				return
			}
		}
	}
}

func (f Filter) compare() func(a, b Payment) int {
	var by func(a, b Payment) int
	switch f.Sort {
	case SortID:
		by = func(a, b Payment) int { return cmp.Compare(a.ID, b.ID) }
	case SortDueDate:
		by = func(a, b Payment) int { return a.DueDate.Compare(b.DueDate.Time) }
	case SortAmount:
		by = func(a, b Payment) int { return cmp.Compare(a.Amount, b.Amount) }
	case SortPayee:
		by = func(a, b Payment) int {
			return cmp.Compare(strings.ToLower(a.PayeeName), strings.ToLower(b.PayeeName))
		}
	default:
		if !f.Desc {
			return nil
		}
		by = func(a, b Payment) int { return cmp.Compare(a.ID, b.ID) }
	}
	if f.Desc {
		return func(a, b Payment) int { return by(b, a) }
	}
	return by
}

// Collect drains a sequence into a slice.
func Collect(seq iter.Seq[Payment]) []Payment {
	if seq == nil {
		return nil
	}
	return slices.Collect(seq)
}
