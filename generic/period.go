package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - The boundary every hour computation runs over
// =============================================================================

// Period is an inclusive date range [Start, End].
//
// Examples:
//   - Calendar month March 2025: Mar 1 - Mar 31
//   - Calendar year 2025: Jan 1 - Dec 31
//   - Billing window "26th to 25th": Dec 26 2024 - Jan 25 2025
type Period struct {
	Start Date
	End   Date
}

// MonthPeriod returns the full calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// YearPeriod returns the full calendar year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// Validate rejects periods whose end falls before their start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: missing start or end", ErrInvalidPeriod)
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p)
	}
	return nil
}

// Contains returns true if the date is within the period [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period as a slice.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.Len())
	p.ForEach(func(d Date) bool {
		days = append(days, d)
		return true
	})
	return days
}

// ForEach calls fn for every day in date order. Iteration stops early when
// fn returns false.
func (p Period) ForEach(fn func(Date) bool) {
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		if !fn(current) {
			return
		}
	}
}

// Clip returns the overlap of p and other, and false when they are disjoint.
func (p Period) Clip(other Period) (Period, bool) {
	start, end := p.Start, p.End
	if other.Start.After(start) {
		start = other.Start
	}
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// Months returns the calendar months overlapping the period, in order.
func (p Period) Months() []Period {
	var months []Period
	for m := StartOfMonth(p.Start.Year(), p.Start.Month()); m.BeforeOrEqual(p.End); m = m.AddMonths(1) {
		if clipped, ok := MonthPeriod(m.Year(), m.Month()).Clip(p); ok {
			months = append(months, clipped)
		}
	}
	return months
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
