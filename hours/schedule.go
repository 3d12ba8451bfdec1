/*
schedule.go - Schedule resolver

PURPOSE:
  Answers "how many hours is this employee scheduled to work on this date?"
  before any exception (vacation, training, ...) is applied. Everything else
  in the engine is built on this number.

RESOLUTION ORDER:
  1. Saturday / Sunday             -> 0
  2. Holiday at employee location  -> 0
  3. Season override month         -> Season.DailyHours
  4. Friday                        -> FridayHours
  5. Monday - Thursday             -> WeekdayHours

  The season override replaces both the Friday and the Mon-Thu value; it
  never turns a weekend or holiday into a working day.

EXAMPLE:
  schedule := hours.ScheduleConfig{
      WeekdayHours: generic.Hours(8.5),
      FridayHours:  generic.Hours(6),
      Season: &hours.SeasonOverride{
          Enabled:    true,
          Months:     []time.Month{time.July, time.August},
          DailyHours: generic.Hours(7),
      },
  }
  h := hours.DailyHours(schedule, date, holidays.IsHoliday(date))

SEE ALSO:
  - summary.go: Walks a period calling DailyHours once per day
  - projection.go: Uses TheoreticalHours for months not yet elapsed
*/
package hours

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

var maxDailyHours = decimal.NewFromInt(24)

// =============================================================================
// SCHEDULE CONFIG
// =============================================================================

// ScheduleConfig is the weekly schedule and annual entitlements of one
// employee. It is owned by the employee record and read-only here.
type ScheduleConfig struct {
	// Hours on Monday through Thursday
	WeekdayHours decimal.Decimal

	// Hours on Friday, the end-of-week working day
	FridayHours decimal.Decimal

	// Optional alternate daily hours for part of the year (e.g. summer)
	Season *SeasonOverride

	// Annual entitlements
	AnnualVacationDays int
	AnnualFlexHours    decimal.Decimal
}

// SeasonOverride swaps the daily hours for a set of calendar months.
type SeasonOverride struct {
	Enabled    bool
	Months     []time.Month
	DailyHours decimal.Decimal
}

// Covers reports whether the override is enabled and includes month.
func (s *SeasonOverride) Covers(month time.Month) bool {
	if s == nil || !s.Enabled {
		return false
	}
	for _, m := range s.Months {
		if m == month {
			return true
		}
	}
	return false
}

// Validate checks hour values and entitlement settings.
func (c ScheduleConfig) Validate() error {
	if err := validateDailyHours("weekday_hours", c.WeekdayHours); err != nil {
		return err
	}
	if err := validateDailyHours("friday_hours", c.FridayHours); err != nil {
		return err
	}
	if c.AnnualVacationDays < 0 {
		return &generic.ConfigurationError{
			Field:  "annual_vacation_days",
			Reason: fmt.Sprintf("must not be negative, got %d", c.AnnualVacationDays),
		}
	}
	if c.AnnualFlexHours.IsNegative() {
		return &generic.ConfigurationError{
			Field:  "annual_flex_hours",
			Reason: fmt.Sprintf("must not be negative, got %s", c.AnnualFlexHours),
		}
	}
	if c.Season != nil && c.Season.Enabled {
		if len(c.Season.Months) == 0 {
			return &generic.ConfigurationError{
				Field:  "season.months",
				Reason: "season override is enabled but no months are set",
			}
		}
		for _, m := range c.Season.Months {
			if m < time.January || m > time.December {
				return &generic.ConfigurationError{
					Field:  "season.months",
					Reason: fmt.Sprintf("month %d is outside 1-12", int(m)),
				}
			}
		}
		if err := validateDailyHours("season.daily_hours", c.Season.DailyHours); err != nil {
			return err
		}
	}
	return nil
}

func validateDailyHours(field string, h decimal.Decimal) error {
	if h.IsNegative() {
		return &generic.ValidationError{Field: field, Value: h.String(), Reason: "must not be negative"}
	}
	if h.GreaterThan(maxDailyHours) {
		return &generic.ValidationError{Field: field, Value: h.String(), Reason: "must not exceed 24"}
	}
	return nil
}

// =============================================================================
// RESOLVER
// =============================================================================

// DailyHours returns the theoretical hours for date.
func DailyHours(schedule ScheduleConfig, date generic.Date, isHoliday bool) decimal.Decimal {
	if date.IsWeekend() {
		return decimal.Zero
	}
	if isHoliday {
		return decimal.Zero
	}
	if schedule.Season.Covers(date.Month()) {
		return schedule.Season.DailyHours
	}
	if date.Weekday() == time.Friday {
		return schedule.FridayHours
	}
	return schedule.WeekdayHours
}

// TheoreticalHours sums DailyHours over a period.
func TheoreticalHours(schedule ScheduleConfig, period generic.Period, holidays generic.HolidayLookup) decimal.Decimal {
	if holidays == nil {
		holidays = generic.NoHolidays
	}
	total := decimal.Zero
	period.ForEach(func(d generic.Date) bool {
		total = total.Add(DailyHours(schedule, d, holidays.IsHoliday(d)))
		return true
	})
	return total
}
