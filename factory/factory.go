/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON schedule, billing and activity definitions into the hours
  engine's value types. Employee schedules and company billing windows are
  edited in an admin UI and stored as JSON; the factory is the one place
  that JSON becomes a validated hours.ScheduleConfig or
  hours.BillingPeriodConfig.

JSON SCHEMA:
  Schedule:
  {
    "weekday_hours": 8.5,
    "friday_hours": 6,
    "season": {"enabled": true, "months": [7, 8], "daily_hours": 7},
    "annual_vacation_days": 22,
    "annual_flex_hours": 40
  }

  Billing:
  {"start_day": 26, "end_day": 25}

  Activity:
  {"employee_id": "emp-1", "date": "2025-03-10", "category": "training", "hours": 2}

KEY FEATURES:
  - Validates through the engine's own Validate / Classify, so a config
    that parses is a config the engine accepts
  - Missing billing config defaults to the calendar month (1-31)
  - Round-trips schedules for storage

USAGE:
  f := factory.New()
  schedule, err := f.ParseSchedule(jsonString)
  stored, err := f.MarshalSchedule(schedule)

SEE ALSO:
  - hours/schedule.go: ScheduleConfig
  - hours/billing.go: BillingPeriodConfig
  - store/sqlite: Stores schedules in this format
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of an employee schedule.
type ScheduleJSON struct {
	WeekdayHours       float64     `json:"weekday_hours"`
	FridayHours        float64     `json:"friday_hours"`
	Season             *SeasonJSON `json:"season,omitempty"`
	AnnualVacationDays int         `json:"annual_vacation_days"`
	AnnualFlexHours    float64     `json:"annual_flex_hours"`
}

// SeasonJSON represents a seasonal override. Months are 1-12.
type SeasonJSON struct {
	Enabled    bool    `json:"enabled"`
	Months     []int   `json:"months"`
	DailyHours float64 `json:"daily_hours"`
}

// BillingJSON represents a company billing window.
type BillingJSON struct {
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`
}

// ActivityJSON represents one activity record.
type ActivityJSON struct {
	ID         string   `json:"id,omitempty"`
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"` // YYYY-MM-DD
	Category   string   `json:"category"`
	Hours      *float64 `json:"hours,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts JSON configuration to engine types.
type Factory struct {
	// Activity rules are checked against this table
	categories hours.Classifier
}

// New creates a factory over the default category table.
func New() *Factory {
	return &Factory{categories: hours.Classifier{Table: hours.DefaultCategories()}}
}

// ParseSchedule parses and validates a schedule JSON string.
func (f *Factory) ParseSchedule(jsonStr string) (hours.ScheduleConfig, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return hours.ScheduleConfig{}, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return f.ScheduleFromJSON(sj)
}

// ScheduleFromJSON converts and validates a ScheduleJSON.
func (f *Factory) ScheduleFromJSON(sj ScheduleJSON) (hours.ScheduleConfig, error) {
	cfg := hours.ScheduleConfig{
		WeekdayHours:       decimal.NewFromFloat(sj.WeekdayHours),
		FridayHours:        decimal.NewFromFloat(sj.FridayHours),
		AnnualVacationDays: sj.AnnualVacationDays,
		AnnualFlexHours:    decimal.NewFromFloat(sj.AnnualFlexHours),
	}
	if sj.Season != nil {
		season := &hours.SeasonOverride{
			Enabled:    sj.Season.Enabled,
			DailyHours: decimal.NewFromFloat(sj.Season.DailyHours),
		}
		for _, m := range sj.Season.Months {
			season.Months = append(season.Months, time.Month(m))
		}
		cfg.Season = season
	}
	if err := cfg.Validate(); err != nil {
		return hours.ScheduleConfig{}, err
	}
	return cfg, nil
}

// ScheduleToJSON converts a schedule to its JSON form.
func (f *Factory) ScheduleToJSON(cfg hours.ScheduleConfig) ScheduleJSON {
	sj := ScheduleJSON{
		WeekdayHours:       cfg.WeekdayHours.InexactFloat64(),
		FridayHours:        cfg.FridayHours.InexactFloat64(),
		AnnualVacationDays: cfg.AnnualVacationDays,
		AnnualFlexHours:    cfg.AnnualFlexHours.InexactFloat64(),
	}
	if cfg.Season != nil {
		season := &SeasonJSON{
			Enabled:    cfg.Season.Enabled,
			DailyHours: cfg.Season.DailyHours.InexactFloat64(),
		}
		for _, m := range cfg.Season.Months {
			season.Months = append(season.Months, int(m))
		}
		sj.Season = season
	}
	return sj
}

// MarshalSchedule renders a schedule as a JSON string for storage.
func (f *Factory) MarshalSchedule(cfg hours.ScheduleConfig) (string, error) {
	b, err := json.Marshal(f.ScheduleToJSON(cfg))
	if err != nil {
		return "", fmt.Errorf("failed to encode schedule: %w", err)
	}
	return string(b), nil
}

// ParseBilling parses a billing JSON string. An empty string is the
// calendar month.
func (f *Factory) ParseBilling(jsonStr string) (hours.BillingPeriodConfig, error) {
	if jsonStr == "" {
		return hours.DefaultBilling, nil
	}
	var bj BillingJSON
	if err := json.Unmarshal([]byte(jsonStr), &bj); err != nil {
		return hours.BillingPeriodConfig{}, fmt.Errorf("failed to parse billing JSON: %w", err)
	}
	return f.BillingFromJSON(bj)
}

// BillingFromJSON converts and validates a BillingJSON. A zero value is
// the calendar month.
func (f *Factory) BillingFromJSON(bj BillingJSON) (hours.BillingPeriodConfig, error) {
	if bj.StartDay == 0 && bj.EndDay == 0 {
		return hours.DefaultBilling, nil
	}
	cfg := hours.BillingPeriodConfig{StartDay: bj.StartDay, EndDay: bj.EndDay}
	if err := cfg.Validate(); err != nil {
		return hours.BillingPeriodConfig{}, err
	}
	return cfg, nil
}

// ParseActivity parses and validates an activity JSON string.
func (f *Factory) ParseActivity(jsonStr string) (hours.Activity, error) {
	var aj ActivityJSON
	if err := json.Unmarshal([]byte(jsonStr), &aj); err != nil {
		return hours.Activity{}, fmt.Errorf("failed to parse activity JSON: %w", err)
	}
	return f.ActivityFromJSON(aj)
}

// ActivityFromJSON converts an ActivityJSON and checks its category and
// hours rules.
func (f *Factory) ActivityFromJSON(aj ActivityJSON) (hours.Activity, error) {
	if aj.EmployeeID == "" {
		return hours.Activity{}, &generic.ValidationError{Field: "employee_id", Reason: "is required"}
	}
	d, err := generic.ParseDate(aj.Date)
	if err != nil {
		return hours.Activity{}, &generic.ValidationError{
			Field:  "date",
			Value:  aj.Date,
			Reason: "must be YYYY-MM-DD",
		}
	}

	a := hours.Activity{
		ID:         aj.ID,
		EmployeeID: aj.EmployeeID,
		Date:       d,
		Category:   hours.Category(aj.Category),
		Note:       aj.Note,
	}
	if aj.Hours != nil {
		h := decimal.NewFromFloat(*aj.Hours)
		a.Hours = &h
	}
	if _, err := f.categories.Classify(a); err != nil {
		return hours.Activity{}, err
	}
	return a, nil
}

// ActivityToJSON converts an activity to its JSON form.
func (f *Factory) ActivityToJSON(a hours.Activity) ActivityJSON {
	aj := ActivityJSON{
		ID:         a.ID,
		EmployeeID: a.EmployeeID,
		Date:       a.Date.String(),
		Category:   string(a.Category),
		Note:       a.Note,
	}
	if a.Hours != nil {
		v := a.Hours.InexactFloat64()
		aj.Hours = &v
	}
	return aj
}
