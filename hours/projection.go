/*
projection.go - Projection engine

PURPOSE:
  Answers "how many hours will this employee have worked by year end?" by
  combining real summaries for elapsed months with an efficiency-based
  estimate for the months still ahead.

KEY INSIGHT:
  The boundary between past and future is the current calendar month,
  relative to the requested year:

    requested < current year  -> every month actual
    requested == current year -> Jan..current month actual, rest projected
    requested > current year  -> every month projected

  The current month counts as elapsed even though it is only partly over.
  Activities already recorded for it are real data and a projection would
  throw them away.

PROJECTION:
  trailing  = mean(Efficiency) over elapsed months with theoretical > 0
              (DefaultEfficiency, normally 100, when there are none)
  projected = TheoreticalHours(month) * trailing / 100, rounded to 2 places

  For a future year the elapsed months of the current year are the best
  history available, so they drive the trailing average.

EXAMPLE:
  p := hours.Projector{Calculator: calc, Today: today, DefaultEfficiency: decimal.NewFromInt(100)}
  months, err := p.ProjectYear(employee, activities, holidays, 2025)
  forecast := hours.Forecast(2025, months)
  fmt.Println(forecast.TotalHours, forecast.Efficiency)

SEE ALSO:
  - summary.go: Actual month summaries
  - schedule.go: TheoreticalHours for projected months
*/
package hours

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

var defaultEfficiency = decimal.NewFromInt(100)

// =============================================================================
// PROJECTION
// =============================================================================

// Projection is one month of a year projection. For an elapsed month it
// carries the unmodified summary; for a future month only the estimate.
type Projection struct {
	Year      int
	Month     time.Month
	Projected bool

	TheoreticalHours decimal.Decimal

	// Actual hours for elapsed months, estimated hours otherwise
	Hours decimal.Decimal

	// Actual efficiency for elapsed months, the trailing average otherwise
	Efficiency decimal.Decimal

	// Set only when Projected is false
	Summary *PeriodSummary
}

// TrailingEfficiency averages the efficiency of history months that had
// scheduled hours. Months with no theoretical hours carry no signal.
func TrailingEfficiency(history []PeriodSummary, fallback decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	n := 0
	for _, s := range history {
		if !s.TheoreticalHours.IsPositive() {
			continue
		}
		sum = sum.Add(s.Efficiency)
		n++
	}
	if n == 0 {
		return fallback
	}
	return generic.Round2(sum.Div(decimal.NewFromInt(int64(n))))
}

// ProjectMonth estimates a month from its theoretical hours and the
// trailing efficiency of history.
func ProjectMonth(history []PeriodSummary, theoretical, fallback decimal.Decimal) Projection {
	trailing := TrailingEfficiency(history, fallback)
	return Projection{
		Projected:        true,
		TheoreticalHours: theoretical,
		Hours:            generic.Round2(theoretical.Mul(trailing).Div(decimal.NewFromInt(100))),
		Efficiency:       trailing,
	}
}

func actualMonth(s PeriodSummary) Projection {
	return Projection{
		Year:             s.Period.Year,
		Month:            s.Period.Month,
		Projected:        false,
		TheoreticalHours: s.TheoreticalHours,
		Hours:            s.ActualHours,
		Efficiency:       s.Efficiency,
		Summary:          &s,
	}
}

// =============================================================================
// PROJECTOR
// =============================================================================

// Projector projects whole years. Today is injected so results are
// reproducible; zero means generic.Today(). A zero DefaultEfficiency
// means 100.
type Projector struct {
	Calculator        *Calculator
	Today             generic.Date
	DefaultEfficiency decimal.Decimal
}

func (p Projector) today() generic.Date {
	if p.Today.IsZero() {
		return generic.Today()
	}
	return p.Today
}

func (p Projector) fallback() decimal.Decimal {
	if p.DefaultEfficiency.IsZero() {
		return defaultEfficiency
	}
	return p.DefaultEfficiency
}

// HistoryPeriod is the holiday and activity range ProjectYear reads for
// year. Callers that prefetch use it to size their fetch.
func (p Projector) HistoryPeriod(year int) generic.Period {
	today := p.today()
	if year > today.Year() {
		return generic.Period{Start: generic.StartOfYear(today.Year()), End: generic.EndOfYear(year)}
	}
	return generic.YearPeriod(year)
}

// ProjectYear returns twelve projections for year, January first.
func (p Projector) ProjectYear(
	employee Employee,
	activities ActivityIndex,
	holidays generic.HolidayLookup,
	year int,
) ([]Projection, error) {
	if err := employee.Schedule.Validate(); err != nil {
		return nil, err
	}
	if holidays == nil {
		holidays = generic.NoHolidays
	}
	today := p.today()

	// elapsed is the last actual month of year; 0 means none.
	var elapsed time.Month
	switch {
	case year < today.Year():
		elapsed = time.December
	case year == today.Year():
		elapsed = today.Month()
	default:
		elapsed = 0
	}

	out := make([]Projection, 0, 12)
	history := make([]PeriodSummary, 0, 12)
	for m := time.January; m <= elapsed; m++ {
		s, err := p.Calculator.SummarizeMonth(employee, activities, holidays, year, m)
		if err != nil {
			return nil, err
		}
		history = append(history, s)
		out = append(out, actualMonth(s))
	}
	if elapsed == time.December {
		return out, nil
	}

	if year > today.Year() {
		for m := time.January; m <= today.Month(); m++ {
			s, err := p.Calculator.SummarizeMonth(employee, activities, holidays, today.Year(), m)
			if err != nil {
				return nil, err
			}
			history = append(history, s)
		}
	}

	for m := elapsed + 1; m <= time.December; m++ {
		theoretical := TheoreticalHours(employee.Schedule, generic.MonthPeriod(year, m), holidays)
		proj := ProjectMonth(history, theoretical, p.fallback())
		proj.Year = year
		proj.Month = m
		out = append(out, proj)
	}
	return out, nil
}

// =============================================================================
// YEAR FORECAST
// =============================================================================

// YearForecast totals a year of projections.
type YearForecast struct {
	Year             int
	Months           []Projection
	TheoreticalHours decimal.Decimal
	ActualHours      decimal.Decimal // elapsed months
	ProjectedHours   decimal.Decimal // future months
	TotalHours       decimal.Decimal
	Efficiency       decimal.Decimal
	ProjectedMonths  int
}

// Forecast sums months into a YearForecast.
func Forecast(year int, months []Projection) YearForecast {
	f := YearForecast{
		Year:             year,
		Months:           months,
		TheoreticalHours: decimal.Zero,
		ActualHours:      decimal.Zero,
		ProjectedHours:   decimal.Zero,
	}
	for _, m := range months {
		f.TheoreticalHours = f.TheoreticalHours.Add(m.TheoreticalHours)
		if m.Projected {
			f.ProjectedHours = f.ProjectedHours.Add(m.Hours)
			f.ProjectedMonths++
		} else {
			f.ActualHours = f.ActualHours.Add(m.Hours)
		}
	}
	f.TotalHours = f.ActualHours.Add(f.ProjectedHours)
	f.Efficiency = generic.Percent(f.TotalHours, f.TheoreticalHours)
	return f
}
