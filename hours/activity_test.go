package hours_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

func activity(d generic.Date, c hours.Category, h *float64) hours.Activity {
	a := hours.Activity{EmployeeID: "emp-1", Date: d, Category: c}
	if h != nil {
		a.Hours = hp(*h)
	}
	return a
}

func f(v float64) *float64 { return &v }

func TestDefaultCategories_CoversEveryCategory(t *testing.T) {
	table := hours.DefaultCategories()
	assert.Equal(t, []hours.Category{
		hours.CategoryVacation,
		hours.CategoryAbsence,
		hours.CategoryFlexibleTimeOff,
		hours.CategoryExtraDuty,
		hours.CategoryTraining,
		hours.CategoryOtherPermit,
	}, table.Categories())

	// Each call builds a new table.
	delete(table, hours.CategoryVacation)
	_, ok := hours.DefaultCategories()[hours.CategoryVacation]
	assert.True(t, ok)
}

func TestClassify_Effects(t *testing.T) {
	c := hours.NewClassifier(hours.ExtraDutyInformational)
	day := date(2025, time.March, 3)
	theoretical := hrs(8)

	tests := []struct {
		name     string
		activity hours.Activity
		actual   float64
		counter  hours.Counter
	}{
		{"vacation", activity(day, hours.CategoryVacation, nil), 0, hours.CounterVacationDays},
		{"absence", activity(day, hours.CategoryAbsence, nil), 0, hours.CounterAbsenceDays},
		{"other permit", activity(day, hours.CategoryOtherPermit, nil), 0, hours.CounterOtherPermitDays},
		{"flex", activity(day, hours.CategoryFlexibleTimeOff, f(3)), 5, hours.CounterFlexHoursUsed},
		{"training", activity(day, hours.CategoryTraining, f(2.5)), 5.5, hours.CounterTrainingHours},
		{"flex beyond schedule floors at zero", activity(day, hours.CategoryFlexibleTimeOff, f(10)), 0, hours.CounterFlexHoursUsed},
		{"extra duty is informational", activity(day, hours.CategoryExtraDuty, f(2)), 8, hours.CounterExtraDutyHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effect, err := c.Classify(tt.activity)
			require.NoError(t, err)
			assertHours(t, tt.actual, effect.Actual(theoretical))
			assert.Equal(t, tt.counter, effect.Counter)
		})
	}
}

func TestClassify_ExtraDutyAdditivePolicy(t *testing.T) {
	// GIVEN: The additive policy
	// WHEN: 2 extra hours on an 8 hour day
	// THEN: Actual is 10 and the counter still gets the 2 hours

	c := hours.NewClassifier(hours.ExtraDutyAdditive)
	effect, err := c.Classify(activity(date(2025, time.March, 3), hours.CategoryExtraDuty, f(2)))
	require.NoError(t, err)

	assert.True(t, effect.CreditsActual)
	assertHours(t, 10, effect.Actual(hrs(8)))
	assertHours(t, 2, effect.Hours)
}

func TestClassify_Rejects(t *testing.T) {
	c := hours.NewClassifier(hours.ExtraDutyInformational)
	day := date(2025, time.March, 3)

	tests := []struct {
		name     string
		activity hours.Activity
		field    string
	}{
		{"unknown category", activity(day, "sabbatical", nil), "category"},
		{"flex without hours", activity(day, hours.CategoryFlexibleTimeOff, nil), "hours"},
		{"training zero hours", activity(day, hours.CategoryTraining, f(0)), "hours"},
		{"extra duty negative", activity(day, hours.CategoryExtraDuty, f(-1)), "hours"},
		{"flex over 24", activity(day, hours.CategoryFlexibleTimeOff, f(24.5)), "hours"},
		{"vacation with hours", activity(day, hours.CategoryVacation, f(8)), "hours"},
		{"other permit with hours", activity(day, hours.CategoryOtherPermit, f(1)), "hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Classify(tt.activity)
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}

	t.Run("exactly 24 hours is allowed", func(t *testing.T) {
		_, err := c.Classify(activity(day, hours.CategoryTraining, f(24)))
		assert.NoError(t, err)
	})
}

func TestParseExtraDutyPolicy(t *testing.T) {
	p, err := hours.ParseExtraDutyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, hours.ExtraDutyInformational, p)

	p, err = hours.ParseExtraDutyPolicy("additive")
	require.NoError(t, err)
	assert.Equal(t, hours.ExtraDutyAdditive, p)

	_, err = hours.ParseExtraDutyPolicy("double")
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestIndexActivities_DuplicateDate(t *testing.T) {
	day := date(2025, time.March, 3)
	_, err := hours.IndexActivities([]hours.Activity{
		activity(day, hours.CategoryVacation, nil),
		activity(day, hours.CategoryTraining, f(2)),
	})

	var dup *generic.DuplicateActivityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, day, dup.Date)
	assert.True(t, generic.IsConflict(err))
}
