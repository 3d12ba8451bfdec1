/*
billing.go - Billing period resolver

PURPOSE:
  Companies invoice on their own cycle, e.g. "from the 26th to the 25th".
  ResolvePeriod turns a company's start/end day-of-month configuration and
  a reference (year, month) into concrete dates.

RULES:
  StartDay <= EndDay: both dates in the reference month.
  StartDay >  EndDay: start in the preceding month (January reaches back to
                      December of the previous year), end in the reference
                      month.
  Each day is clamped to the last day of its month. Days outside 1-31 are
  rejected; valid days are never rejected because a month is short.

  Clamping can make consecutive crossing windows share a day: with {31, 30}
  April ends on Apr 30 and May, whose start clamps to Apr 30, begins on it.
  Both windows count that day. BillingPeriodFor attributes a shared day to
  the earlier window.

EXAMPLES:
  {26, 25}, 2025-01 -> 2024-12-26 .. 2025-01-25
  {1, 31},  2025-02 -> 2025-02-01 .. 2025-02-28
  {31, 30}, 2025-03 -> 2025-02-28 .. 2025-03-30
*/
package hours

import (
	"fmt"
	"time"

	"github.com/warp/hours-engine/generic"
)

// BillingPeriodConfig is a company's billing window by day of month.
type BillingPeriodConfig struct {
	StartDay int
	EndDay   int
}

// DefaultBilling is the calendar month.
var DefaultBilling = BillingPeriodConfig{StartDay: 1, EndDay: 31}

func (c BillingPeriodConfig) Validate() error {
	if c.StartDay < 1 || c.StartDay > 31 {
		return &generic.ValidationError{Field: "start_day", Value: c.StartDay, Reason: "must be between 1 and 31"}
	}
	if c.EndDay < 1 || c.EndDay > 31 {
		return &generic.ValidationError{Field: "end_day", Value: c.EndDay, Reason: "must be between 1 and 31"}
	}
	return nil
}

// Crosses reports whether the window spans two calendar months.
func (c BillingPeriodConfig) Crosses() bool {
	return c.StartDay > c.EndDay
}

// Company is the billing-relevant part of a company record.
type Company struct {
	ID      string
	Name    string
	Billing BillingPeriodConfig
}

// ResolvePeriod returns the billing window referenced by (year, month).
func ResolvePeriod(cfg BillingPeriodConfig, year int, month time.Month) (generic.Period, error) {
	if err := cfg.Validate(); err != nil {
		return generic.Period{}, err
	}
	if month < time.January || month > time.December {
		return generic.Period{}, &generic.ValidationError{
			Field:  "month",
			Value:  int(month),
			Reason: "must be between 1 and 12",
		}
	}

	end := generic.ClampedDate(year, month, cfg.EndDay)
	if !cfg.Crosses() {
		return generic.Period{Start: generic.ClampedDate(year, month, cfg.StartDay), End: end}, nil
	}
	py, pm := generic.PreviousMonth(year, month)
	return generic.Period{Start: generic.ClampedDate(py, pm, cfg.StartDay), End: end}, nil
}

// BillingPeriodFor finds the billing window that contains date and the
// (year, month) that references it. A day shared by two windows belongs to
// the earlier one.
func BillingPeriodFor(cfg BillingPeriodConfig, date generic.Date) (int, time.Month, generic.Period, error) {
	if err := cfg.Validate(); err != nil {
		return 0, 0, generic.Period{}, err
	}
	// The window containing date is referenced either by date's own month
	// or, for crossing windows that started this month, by the next one.
	// Anchor on the 1st so AddMonths never skips a short month.
	this := generic.StartOfMonth(date.Year(), date.Month())
	for _, ref := range []generic.Date{this, this.AddMonths(1)} {
		p, err := ResolvePeriod(cfg, ref.Year(), ref.Month())
		if err != nil {
			return 0, 0, generic.Period{}, err
		}
		if p.Contains(date) {
			return ref.Year(), ref.Month(), p, nil
		}
	}
	// Non-crossing windows that end before the month does (e.g. 1-25)
	// leave gap days that belong to no window.
	return 0, 0, generic.Period{}, &generic.ValidationError{
		Field:  "date",
		Value:  date.String(),
		Reason: fmt.Sprintf("falls outside every billing window %d-%d", cfg.StartDay, cfg.EndDay),
	}
}

// LastClosedPeriod returns the most recent billing window that ended
// before today, with the (year, month) that references it.
func LastClosedPeriod(cfg BillingPeriodConfig, today generic.Date) (int, time.Month, generic.Period, error) {
	if err := cfg.Validate(); err != nil {
		return 0, 0, generic.Period{}, err
	}
	ref := generic.StartOfMonth(today.Year(), today.Month())
	for i := 0; i < 2; i++ {
		p, err := ResolvePeriod(cfg, ref.Year(), ref.Month())
		if err != nil {
			return 0, 0, generic.Period{}, err
		}
		if p.End.Before(today) {
			return ref.Year(), ref.Month(), p, nil
		}
		ref = ref.AddMonths(-1)
	}
	// Unreachable for valid configs: last month's window always ends
	// before today.
	return 0, 0, generic.Period{}, generic.ErrInvalidPeriod
}
