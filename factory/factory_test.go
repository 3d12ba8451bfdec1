package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

const summerScheduleJSON = `{
	"weekday_hours": 8.5,
	"friday_hours": 6,
	"season": {"enabled": true, "months": [7, 8], "daily_hours": 7},
	"annual_vacation_days": 22,
	"annual_flex_hours": 40
}`

func TestParseSchedule(t *testing.T) {
	f := factory.New()

	cfg, err := f.ParseSchedule(summerScheduleJSON)
	require.NoError(t, err)

	assert.True(t, cfg.WeekdayHours.Equal(decimal.NewFromFloat(8.5)))
	assert.True(t, cfg.FridayHours.Equal(decimal.NewFromInt(6)))
	require.NotNil(t, cfg.Season)
	assert.Equal(t, []time.Month{time.July, time.August}, cfg.Season.Months)
	assert.Equal(t, 22, cfg.AnnualVacationDays)
}

func TestParseSchedule_RoundTrip(t *testing.T) {
	f := factory.New()
	cfg, err := f.ParseSchedule(summerScheduleJSON)
	require.NoError(t, err)

	stored, err := f.MarshalSchedule(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, summerScheduleJSON, stored)

	again, err := f.ParseSchedule(stored)
	require.NoError(t, err)
	assert.Equal(t, f.ScheduleToJSON(cfg), f.ScheduleToJSON(again))
}

func TestParseSchedule_Invalid(t *testing.T) {
	f := factory.New()

	_, err := f.ParseSchedule(`{"weekday_hours": 25, "friday_hours": 8}`)
	assert.ErrorIs(t, err, generic.ErrValidation)

	_, err = f.ParseSchedule(`{"weekday_hours": 8, "friday_hours": 8, "season": {"enabled": true, "months": [], "daily_hours": 7}}`)
	assert.ErrorIs(t, err, generic.ErrConfiguration)

	_, err = f.ParseSchedule(`{not json`)
	assert.Error(t, err)
	assert.False(t, generic.IsClientError(err))
}

func TestParseBilling(t *testing.T) {
	f := factory.New()

	cfg, err := f.ParseBilling(`{"start_day": 26, "end_day": 25}`)
	require.NoError(t, err)
	assert.Equal(t, hours.BillingPeriodConfig{StartDay: 26, EndDay: 25}, cfg)

	cfg, err = f.ParseBilling("")
	require.NoError(t, err)
	assert.Equal(t, hours.DefaultBilling, cfg)

	_, err = f.ParseBilling(`{"start_day": 0, "end_day": 40}`)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestParseActivity(t *testing.T) {
	f := factory.New()

	a, err := f.ParseActivity(`{"employee_id": "emp-1", "date": "2025-03-10", "category": "training", "hours": 2}`)
	require.NoError(t, err)
	assert.Equal(t, generic.NewDate(2025, time.March, 10), a.Date)
	assert.Equal(t, hours.CategoryTraining, a.Category)
	require.NotNil(t, a.Hours)
	assert.True(t, a.Hours.Equal(decimal.NewFromInt(2)))

	back := f.ActivityToJSON(a)
	assert.Equal(t, "2025-03-10", back.Date)
	require.NotNil(t, back.Hours)
	assert.Equal(t, 2.0, *back.Hours)
}

func TestParseActivity_Rejects(t *testing.T) {
	f := factory.New()

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"bad date", `{"employee_id": "emp-1", "date": "10/03/2025", "category": "vacation"}`, "date"},
		{"missing employee", `{"date": "2025-03-10", "category": "vacation"}`, "employee_id"},
		{"vacation with hours", `{"employee_id": "emp-1", "date": "2025-03-10", "category": "vacation", "hours": 8}`, "hours"},
		{"unknown category", `{"employee_id": "emp-1", "date": "2025-03-10", "category": "nap"}`, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseActivity(tt.json)
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
