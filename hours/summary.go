/*
summary.go - Period aggregator

PURPOSE:
  Walks a date range day by day and produces a PeriodSummary: theoretical
  hours, actual hours, efficiency and the per-category totals. This is the
  central calculation every other component builds on.

ALGORITHM:
  for each date in [start, end]:
    theoretical = DailyHours(schedule, date, holidays.IsHoliday(date))
    if an activity exists on date:
      actual += effect.Actual(theoretical)
      counter[effect.Counter] += 1 day or effect.Hours
    else:
      actual += theoretical
  efficiency = round2(actual / theoretical * 100), or 0 when theoretical is 0

FAILURE SEMANTICS:
  An invalid activity aborts the whole call. Per-day results are not
  meaningful without the full period, so there is no partial summary.

EXAMPLE:
  calc := hours.NewCalculator(hours.NewClassifier(hours.ExtraDutyInformational))
  summary, err := calc.SummarizeMonth(employee, activities, holidays, 2025, time.March)
  fmt.Println(summary.Efficiency) // 96.88

SEE ALSO:
  - schedule.go: DailyHours
  - activity.go: Classifier and Effect
  - benefits.go, projection.go, rollup.go: Consumers of PeriodSummary
*/
package hours

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the slice of an employee record the engine reads.
type Employee struct {
	ID        string
	Name      string
	TeamID    string
	CompanyID string
	Location  generic.Location
	Schedule  ScheduleConfig
}

// =============================================================================
// PERIOD SUMMARY
// =============================================================================

// PeriodKind says how a summary's range was selected.
type PeriodKind string

const (
	PeriodMonth   PeriodKind = "month"
	PeriodYear    PeriodKind = "year"
	PeriodBilling PeriodKind = "billing"
	PeriodCustom  PeriodKind = "custom"
)

// PeriodID identifies a summary. Month is zero for a whole-year summary.
type PeriodID struct {
	Kind  PeriodKind
	Year  int
	Month time.Month
	Start generic.Date
	End   generic.Date
}

func (id PeriodID) String() string {
	switch id.Kind {
	case PeriodMonth:
		return fmt.Sprintf("%d-%02d", id.Year, int(id.Month))
	case PeriodYear:
		return fmt.Sprintf("%d", id.Year)
	case PeriodBilling:
		return fmt.Sprintf("billing %d-%02d %s..%s", id.Year, int(id.Month), id.Start, id.End)
	default:
		return id.Start.String() + ".." + id.End.String()
	}
}

// Range returns the concrete dates the summary covers.
func (id PeriodID) Range() generic.Period {
	return generic.Period{Start: id.Start, End: id.End}
}

// PeriodSummary is the immutable result of summarizing one employee over
// one period.
type PeriodSummary struct {
	EmployeeID string
	Period     PeriodID

	TheoreticalHours decimal.Decimal
	ActualHours      decimal.Decimal
	Efficiency       decimal.Decimal // percent, two decimals

	VacationDays    int
	AbsenceDays     int
	FlexHoursUsed   decimal.Decimal
	ExtraDutyHours  decimal.Decimal
	TrainingHours   decimal.Decimal
	OtherPermitDays int

	// Days with theoretical hours > 0
	WorkingDays int
	// Weekdays zeroed by a holiday
	HolidayDays int
}

func emptySummary(employeeID string, id PeriodID) PeriodSummary {
	return PeriodSummary{
		EmployeeID:       employeeID,
		Period:           id,
		TheoreticalHours: decimal.Zero,
		ActualHours:      decimal.Zero,
		Efficiency:       decimal.Zero,
		FlexHoursUsed:    decimal.Zero,
		ExtraDutyHours:   decimal.Zero,
		TrainingHours:    decimal.Zero,
	}
}

func (s *PeriodSummary) count(effect Effect) {
	switch effect.Counter {
	case CounterVacationDays:
		s.VacationDays++
	case CounterAbsenceDays:
		s.AbsenceDays++
	case CounterOtherPermitDays:
		s.OtherPermitDays++
	case CounterFlexHoursUsed:
		s.FlexHoursUsed = s.FlexHoursUsed.Add(effect.Hours)
	case CounterExtraDutyHours:
		s.ExtraDutyHours = s.ExtraDutyHours.Add(effect.Hours)
	case CounterTrainingHours:
		s.TrainingHours = s.TrainingHours.Add(effect.Hours)
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator holds the classifier configuration. It has no mutable state
// and is safe to share.
type Calculator struct {
	Classifier Classifier
}

func NewCalculator(classifier Classifier) *Calculator {
	return &Calculator{Classifier: classifier}
}

// Summarize aggregates the employee's hours over period.
func (c *Calculator) Summarize(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	period generic.Period,
) (PeriodSummary, error) {
	return c.summarize(employee, activities, holidays, PeriodID{
		Kind:  PeriodCustom,
		Year:  period.Start.Year(),
		Start: period.Start,
		End:   period.End,
	})
}

// SummarizeMonth aggregates one calendar month.
func (c *Calculator) SummarizeMonth(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	year int,
	month time.Month,
) (PeriodSummary, error) {
	p := generic.MonthPeriod(year, month)
	return c.summarize(employee, activities, holidays, PeriodID{
		Kind: PeriodMonth, Year: year, Month: month, Start: p.Start, End: p.End,
	})
}

// SummarizeYear aggregates one calendar year.
func (c *Calculator) SummarizeYear(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	year int,
) (PeriodSummary, error) {
	p := generic.YearPeriod(year)
	return c.summarize(employee, activities, holidays, PeriodID{
		Kind: PeriodYear, Year: year, Start: p.Start, End: p.End,
	})
}

// SummarizeBilling aggregates the company billing window referenced by
// (year, month).
func (c *Calculator) SummarizeBilling(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	billing BillingPeriodConfig,
	year int,
	month time.Month,
) (PeriodSummary, error) {
	p, err := ResolvePeriod(billing, year, month)
	if err != nil {
		return PeriodSummary{}, err
	}
	return c.summarize(employee, activities, holidays, PeriodID{
		Kind: PeriodBilling, Year: year, Month: month, Start: p.Start, End: p.End,
	})
}

// MonthlyBreakdown summarizes each calendar month of year in order.
func (c *Calculator) MonthlyBreakdown(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	year int,
) ([]PeriodSummary, error) {
	months := make([]PeriodSummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		s, err := c.SummarizeMonth(employee, activities, holidays, year, m)
		if err != nil {
			return nil, err
		}
		months = append(months, s)
	}
	return months, nil
}

func (c *Calculator) summarize(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	id PeriodID,
) (PeriodSummary, error) {
	if err := id.Range().Validate(); err != nil {
		return PeriodSummary{}, err
	}
	if err := employee.Schedule.Validate(); err != nil {
		return PeriodSummary{}, fmt.Errorf("employee %s schedule: %w", employee.ID, err)
	}
	if holidays == nil {
		holidays = generic.NoHolidays
	}

	summary := emptySummary(employee.ID, id)
	var failure error

	id.Range().ForEach(func(d generic.Date) bool {
		holiday := holidays.IsHoliday(d)
		theoretical := DailyHours(employee.Schedule, d, holiday)

		summary.TheoreticalHours = summary.TheoreticalHours.Add(theoretical)
		if theoretical.IsPositive() {
			summary.WorkingDays++
		}
		if holiday && !d.IsWeekend() {
			summary.HolidayDays++
		}

		activity, ok := activities[d]
		if !ok {
			summary.ActualHours = summary.ActualHours.Add(theoretical)
			return true
		}

		effect, err := c.Classifier.Classify(activity)
		if err != nil {
			failure = fmt.Errorf("activity on %s for %s: %w", d, employee.ID, err)
			return false
		}
		summary.ActualHours = summary.ActualHours.Add(effect.Actual(theoretical))
		summary.count(effect)
		return true
	})

	if failure != nil {
		return PeriodSummary{}, failure
	}

	summary.Efficiency = generic.Percent(summary.ActualHours, summary.TheoreticalHours)
	return summary, nil
}
