package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/generic"
)

// =============================================================================
// DATE
// =============================================================================

func TestDate_CalendarHelpers(t *testing.T) {
	assert.Equal(t, 29, generic.DaysInMonth(2024, time.February))
	assert.Equal(t, 28, generic.DaysInMonth(2025, time.February))
	assert.Equal(t, generic.NewDate(2025, time.December, 31), generic.EndOfMonth(2025, time.December))

	y, m := generic.PreviousMonth(2025, time.January)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)

	assert.Equal(t, generic.NewDate(2025, time.April, 30), generic.ClampedDate(2025, time.April, 31))
	assert.Equal(t, generic.NewDate(2025, time.April, 1), generic.ClampedDate(2025, time.April, 0))

	assert.Equal(t, 364, generic.DaysBetween(generic.StartOfYear(2025), generic.EndOfYear(2025)))
}

func TestDate_DateOfDropsClock(t *testing.T) {
	at := time.Date(2025, time.March, 3, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, generic.NewDate(2025, time.March, 3), generic.DateOf(at))
	assert.True(t, generic.NewDate(2025, time.March, 8).IsWeekend())
	assert.False(t, generic.NewDate(2025, time.March, 7).IsWeekend())
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Date generic.Date `json:"date"`
	}
	b, err := json.Marshal(wrapper{Date: generic.NewDate(2025, time.March, 3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-03-03"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &w))
	assert.Equal(t, generic.NewDate(2024, time.February, 29), w.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"2025-02-30"}`), &w))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod_IterationAndValidation(t *testing.T) {
	p := generic.MonthPeriod(2024, time.February)
	assert.Equal(t, 29, p.Len())
	days := p.Days()
	require.Len(t, days, 29)
	assert.Equal(t, generic.NewDate(2024, time.February, 29), days[28])

	visited := 0
	p.ForEach(func(generic.Date) bool {
		visited++
		return visited < 5
	})
	assert.Equal(t, 5, visited)

	assert.NoError(t, p.Validate())
	backwards := generic.Period{Start: p.End, End: p.Start}
	assert.ErrorIs(t, backwards.Validate(), generic.ErrInvalidPeriod)
	assert.ErrorIs(t, generic.Period{}.Validate(), generic.ErrInvalidPeriod)
	assert.Equal(t, 0, backwards.Len())
}

func TestPeriod_ClipAndMonths(t *testing.T) {
	window := generic.Period{Start: generic.NewDate(2024, time.December, 26), End: generic.NewDate(2025, time.January, 25)}

	months := window.Months()
	require.Len(t, months, 2)
	assert.Equal(t, generic.NewDate(2024, time.December, 31), months[0].End)
	assert.Equal(t, generic.NewDate(2025, time.January, 1), months[1].Start)

	_, ok := window.Clip(generic.MonthPeriod(2025, time.March))
	assert.False(t, ok)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHoliday_AppliesTo(t *testing.T) {
	madrid := generic.Location{Country: "ES", Region: "MD", City: "Madrid"}
	barcelona := generic.Location{Country: "ES", Region: "CT", City: "Barcelona"}

	tests := []struct {
		name   string
		scope  generic.Location
		madrid bool
		bcn    bool
	}{
		{"global", generic.Location{}, true, true},
		{"country", generic.Location{Country: "es"}, true, true},
		{"region", generic.Location{Country: "ES", Region: "MD"}, true, false},
		{"city", generic.Location{Country: "ES", Region: "CT", City: "Barcelona"}, false, true},
		{"other country", generic.Location{Country: "FR"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := generic.Holiday{Scope: tt.scope}
			assert.Equal(t, tt.madrid, h.AppliesTo(madrid))
			assert.Equal(t, tt.bcn, h.AppliesTo(barcelona))
		})
	}
}

func TestHolidaySet_ExpandsRecurring(t *testing.T) {
	loc := generic.Location{Country: "ES", Region: "MD"}
	holidays := []generic.Holiday{
		{Name: "New Year", Date: generic.NewDate(2000, time.January, 1), Recurring: true},
		{Name: "San Isidro", Date: generic.NewDate(2025, time.May, 15), Scope: generic.Location{Country: "ES", Region: "MD"}},
		{Name: "Leap", Date: generic.NewDate(2024, time.February, 29), Recurring: true},
		{Name: "Bastille", Date: generic.NewDate(2025, time.July, 14), Scope: generic.Location{Country: "FR"}},
	}
	period := generic.Period{Start: generic.NewDate(2024, time.December, 1), End: generic.NewDate(2025, time.December, 31)}

	set := generic.NewHolidaySet(holidays, loc, period)

	assert.True(t, set.IsHoliday(generic.NewDate(2025, time.January, 1)))
	assert.True(t, set.IsHoliday(generic.NewDate(2025, time.May, 15)))
	assert.False(t, set.IsHoliday(generic.NewDate(2025, time.July, 14)), "other country")
	assert.False(t, set.IsHoliday(generic.NewDate(2024, time.February, 29)), "outside period")
	assert.Equal(t, 2, set.Len())

	name, ok := set.Name(generic.NewDate(2025, time.May, 15))
	assert.True(t, ok)
	assert.Equal(t, "San Isidro", name)
}

// =============================================================================
// AMOUNTS
// =============================================================================

func TestPercent(t *testing.T) {
	assert.True(t, generic.Percent(decimal.NewFromInt(150), decimal.NewFromInt(160)).Equal(decimal.NewFromFloat(93.75)))
	assert.True(t, generic.Percent(decimal.NewFromInt(139), decimal.NewFromInt(168)).Equal(decimal.NewFromFloat(82.74)))
	assert.True(t, generic.Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
}

func TestAmount_NonNegative(t *testing.T) {
	a := generic.NewAmount(2, generic.UnitDays).Sub(generic.NewAmount(5, generic.UnitDays))
	assert.True(t, a.IsNegative())
	assert.True(t, a.NonNegative().IsZero())
	assert.Equal(t, generic.UnitDays, a.NonNegative().Unit)
}

func TestAmount_Add(t *testing.T) {
	total := generic.NewAmount(7.5, generic.UnitHours).Add(generic.NewAmount(0.5, generic.UnitHours))
	assert.True(t, total.Value.Equal(decimal.NewFromInt(8)))
	assert.False(t, total.IsZero())
}
