package core

import (
	"cmp"
	"iter"
	"slices"
	"time"
)

// DailyTotal sums the amounts of payments. An empty sequence totals 0.
func DailyTotal(payments iter.Seq[Payment]) Yen {
	var total Yen
	if payments == nil {
		return total
	}
	for p := range payments {
		total += p.Amount
	}
	return total
}

// CountByStatus counts payments whose Status equals status. Wrap the sequence with
// WithEffectiveStatus to count derived overdue payments.
func CountByStatus(payments iter.Seq[Payment], status Status) int {
	n := 0
	if payments == nil {
		return n
	}
	for p := range payments {
		if p.Status == status {
			n++
		}
	}
	return n
}

// WeekStart returns the Sunday that opens the week containing d.
func WeekStart(d Date) Date {
	return d.AddDays(-int(d.Weekday()))
}

// WeekTotal sums the non-deferred payments due in the Sunday-first week containing today.
func WeekTotal(payments iter.Seq[Payment], today Date) Yen {
	start := WeekStart(today)
	end := start.AddDays(7)
	return DailyTotal(filterSeq(payments, func(p Payment) bool {
		return p.Status != StatusDeferred && !p.DueDate.Before(start.Time) && p.DueDate.Before(end.Time)
	}))
}

// MonthTotal sums the non-deferred payments due in the given month.
func MonthTotal(payments iter.Seq[Payment], year int, month time.Month) Yen {
	return DailyTotal(filterSeq(payments, func(p Payment) bool {
		return p.Status != StatusDeferred && p.DueDate.InMonth(year, month)
	}))
}

// Overview is the dashboard summary as of Today.
type Overview struct {
	Today         Date
	WeekTotal     Yen
	MonthTotal    Yen
	PendingCount  int
	OverdueCount  int
	DeferredCount int
	Upcoming      []Payment
	Deferred      []Payment
}

// BuildOverview computes the dashboard summary. Upcoming holds at most limit unpaid,
// non-deferred payments due today or later, earliest first; limit <= 0 means no cap.
func BuildOverview(payments iter.Seq[Payment], today Date, limit int) Overview {
	ov := Overview{Today: today}
	if payments == nil {
		return ov
	}
	effective := WithEffectiveStatus(payments, today)

	ov.WeekTotal = WeekTotal(payments, today)
	ov.MonthTotal = MonthTotal(payments, today.Year(), today.Month())
	ov.PendingCount = CountByStatus(effective, StatusPending)
	ov.OverdueCount = CountByStatus(effective, StatusOverdue)
	ov.Deferred = DeferredList(payments)
	ov.DeferredCount = len(ov.Deferred)

	for p := range effective {
		if p.Status == StatusPaid || p.Status == StatusDeferred || p.DueDate.Before(today.Time) {
			continue
		}
		ov.Upcoming = append(ov.Upcoming, p)
	}
	slices.SortStableFunc(ov.Upcoming, func(a, b Payment) int {
		return a.DueDate.Compare(b.DueDate.Time)
	})
	if limit > 0 && len(ov.Upcoming) > limit {
		ov.Upcoming = ov.Upcoming[:limit]
	}
	slices.SortStableFunc(ov.Deferred, func(a, b Payment) int {
		return cmp.Compare(a.PlannedPaymentDate.Unix(), b.PlannedPaymentDate.Unix())
	})
	return ov
}

func filterSeq(seq iter.Seq[Payment], keep func(Payment) bool) iter.Seq[Payment] {
	return func(yield func(Payment) bool) {
		if seq == nil {
			return
		}
		for p := range seq {
			if keep(p) && !yield(p) {
				return
			}
		}
	}
}
