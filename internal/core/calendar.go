package core

import (
	"iter"
	"time"
)

// DayCell is one position of a month grid. Blank cells have Day == 0 and never hold payments.
type DayCell struct {
	Day      int
	Date     Date
	Payments []Payment
}

// Blank reports whether the cell pads the first week.
func (c DayCell) Blank() bool { return c.Day == 0 }

// MonthGrid is a month laid out in Sunday-first weeks.
type MonthGrid struct {
	Year          int
	Month         time.Month
	LeadingBlanks int
	DaysInMonth   int
	Cells         []DayCell
}

// Day returns the cell for day d (1-based). ok is false outside the month.
func (g MonthGrid) Day(d int) (DayCell, bool) {
	if d < 1 || d > g.DaysInMonth {
		return DayCell{}, false
	}
	return g.Cells[g.LeadingBlanks+d-1], true
}

// Weeks splits the cells into rows of seven; the last row may be shorter.
func (g MonthGrid) Weeks() [][]DayCell {
	var rows [][]DayCell
	for start := 0; start < len(g.Cells); start += 7 {
		end := min(start+7, len(g.Cells))
		rows = append(rows, g.Cells[start:end])
	}
	return rows
}

// BuildMonth buckets payments into the cells of the given month. Deferred payments
// and payments due in other months are left out.
func BuildMonth(year int, month time.Month, payments iter.Seq[Payment]) (MonthGrid, error) {
	if month < time.January || month > time.December {
		return MonthGrid{}, invalid("month", ErrInvalidMonth)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	g := MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: int(first.Weekday()),
		DaysInMonth:   DaysIn(year, month),
	}
	g.Cells = make([]DayCell, g.LeadingBlanks+g.DaysInMonth)
	for d := 1; d <= g.DaysInMonth; d++ {
		g.Cells[g.LeadingBlanks+d-1] = DayCell{Day: d, Date: NewDate(year, month, d)}
	}

	if payments == nil {
		return g, nil
	}
	for p := range payments {
		if p.Status == StatusDeferred || !p.DueDate.InMonth(year, month) {
			continue
		}
		idx := g.LeadingBlanks + p.DueDate.Day() - 1
		g.Cells[idx].Payments = append(g.Cells[idx].Payments, p)
	}
	return g, nil
}

// DaysIn returns the number of days of the month, leap years included.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DeferredList collects the deferred payments shown next to the calendar.
func DeferredList(payments iter.Seq[Payment]) []Payment {
	var out []Payment
	if payments == nil {
		return out
	}
	for p := range payments {
		if p.Status == StatusDeferred {
			out = append(out, p)
		}
	}
	return out
}

// Shift moves a (year, month) cursor by delta months.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
