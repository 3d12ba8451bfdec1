/*
activity.go - Activity effect classifier

PURPOSE:
  An activity record is a calendar exception: a vacation day, a sick day,
  two hours of training. The classifier validates a record and turns it into
  an Effect that says how the day's actual hours differ from its
  theoretical hours and which category counter moves.

CATEGORY TABLE:
  | Category          | Kind      | Hours    | Actual hours                | Counter              |
  |-------------------|-----------|----------|-----------------------------|----------------------|
  | vacation          | full_day  | forbidden| 0                           | +1 vacation day      |
  | absence           | full_day  | forbidden| 0                           | +1 absence day       |
  | flexible_time_off | deduction | required | theoretical - hours (>= 0)  | +hours flex used     |
  | extra_duty        | additive  | required | see EXTRA DUTY POLICY       | +hours extra duty    |
  | training          | deduction | required | theoretical - hours (>= 0)  | +hours training      |
  | other_permit      | full_day  | forbidden| 0                           | +1 other-permit day  |

  The table is a value built by DefaultCategories and handed to a
  Classifier. Nothing registers itself at init time and nothing mutates
  the table after construction.

EXTRA DUTY POLICY:
  Two historical billing computations disagree on extra duty:
    ExtraDutyInformational (default): actual = theoretical. The recorded
      hours only feed the ExtraDutyHours counter.
    ExtraDutyAdditive: actual = theoretical + hours.
  The counter moves under both policies. The policy is a required field of
  the Classifier; callers pick it explicitly (see config engine.extra_duty_policy).

VALIDATION:
  Classify rejects, with a *generic.ValidationError:
  - unknown categories
  - hours-required categories with missing, non-positive or > 24 hours
  - hours-forbidden categories that carry an hours value

SEE ALSO:
  - summary.go: Applies effects day by day
  - generic/errors.go: ValidationError
*/
package hours

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is the kind of calendar exception an activity records.
type Category string

const (
	CategoryVacation        Category = "vacation"
	CategoryAbsence         Category = "absence"
	CategoryFlexibleTimeOff Category = "flexible_time_off"
	CategoryExtraDuty       Category = "extra_duty"
	CategoryTraining        Category = "training"
	CategoryOtherPermit     Category = "other_permit"
)

// EffectKind is how a category changes the day's actual hours.
type EffectKind string

const (
	// KindFullDay zeroes the day's actual hours.
	KindFullDay EffectKind = "full_day"

	// KindDeduction subtracts the recorded hours from theoretical.
	KindDeduction EffectKind = "deduction"

	// KindAdditive records hours on top of the schedule.
	KindAdditive EffectKind = "additive"
)

// Counter names the PeriodSummary total a category feeds.
type Counter string

const (
	CounterVacationDays    Counter = "vacation_days"
	CounterAbsenceDays     Counter = "absence_days"
	CounterFlexHoursUsed   Counter = "flex_hours_used"
	CounterExtraDutyHours  Counter = "extra_duty_hours"
	CounterTrainingHours   Counter = "training_hours"
	CounterOtherPermitDays Counter = "other_permit_days"
)

// CategoryRule is one row of the category table.
type CategoryRule struct {
	Category      Category
	Kind          EffectKind
	RequiresHours bool
	Counter       Counter
}

// CategoryTable maps every known category to its rule.
type CategoryTable map[Category]CategoryRule

// DefaultCategories returns a freshly built copy of the standard table.
func DefaultCategories() CategoryTable {
	rules := []CategoryRule{
		{Category: CategoryVacation, Kind: KindFullDay, Counter: CounterVacationDays},
		{Category: CategoryAbsence, Kind: KindFullDay, Counter: CounterAbsenceDays},
		{Category: CategoryFlexibleTimeOff, Kind: KindDeduction, RequiresHours: true, Counter: CounterFlexHoursUsed},
		{Category: CategoryExtraDuty, Kind: KindAdditive, RequiresHours: true, Counter: CounterExtraDutyHours},
		{Category: CategoryTraining, Kind: KindDeduction, RequiresHours: true, Counter: CounterTrainingHours},
		{Category: CategoryOtherPermit, Kind: KindFullDay, Counter: CounterOtherPermitDays},
	}
	table := make(CategoryTable, len(rules))
	for _, r := range rules {
		table[r.Category] = r
	}
	return table
}

// Categories lists the table's categories in a fixed order.
func (t CategoryTable) Categories() []Category {
	order := []Category{
		CategoryVacation, CategoryAbsence, CategoryFlexibleTimeOff,
		CategoryExtraDuty, CategoryTraining, CategoryOtherPermit,
	}
	out := make([]Category, 0, len(t))
	for _, c := range order {
		if _, ok := t[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// ACTIVITY RECORD
// =============================================================================

// Activity is one calendar exception for one employee on one date. At most
// one exists per (employee, date); the owning store enforces it.
type Activity struct {
	ID         string
	EmployeeID string
	Date       generic.Date
	Category   Category
	Hours      *decimal.Decimal
	Note       string
}

// ActivityIndex is the date-keyed view of an employee's activities.
type ActivityIndex map[generic.Date]Activity

// IndexActivities builds an ActivityIndex, failing on a repeated date.
func IndexActivities(activities []Activity) (ActivityIndex, error) {
	idx := make(ActivityIndex, len(activities))
	for _, a := range activities {
		if _, exists := idx[a.Date]; exists {
			return nil, &generic.DuplicateActivityError{EmployeeID: a.EmployeeID, Date: a.Date}
		}
		idx[a.Date] = a
	}
	return idx, nil
}

// =============================================================================
// EFFECT
// =============================================================================

// ExtraDutyPolicy decides whether extra-duty hours count as actual hours.
type ExtraDutyPolicy string

const (
	ExtraDutyInformational ExtraDutyPolicy = "informational"
	ExtraDutyAdditive      ExtraDutyPolicy = "additive"
)

// ParseExtraDutyPolicy accepts the config spelling of a policy.
func ParseExtraDutyPolicy(s string) (ExtraDutyPolicy, error) {
	switch ExtraDutyPolicy(s) {
	case ExtraDutyInformational, ExtraDutyAdditive:
		return ExtraDutyPolicy(s), nil
	case "":
		return ExtraDutyInformational, nil
	default:
		return "", &generic.ConfigurationError{
			Field:  "extra_duty_policy",
			Reason: fmt.Sprintf("must be %q or %q, got %q", ExtraDutyInformational, ExtraDutyAdditive, s),
		}
	}
}

// Effect is a validated activity's impact on its date.
type Effect struct {
	Category Category
	Kind     EffectKind
	Counter  Counter

	// Recorded hours; zero for full-day categories
	Hours decimal.Decimal

	// Whether additive hours are credited as actual hours
	CreditsActual bool
}

// Actual returns the day's actual hours given its theoretical hours.
func (e Effect) Actual(theoretical decimal.Decimal) decimal.Decimal {
	switch e.Kind {
	case KindFullDay:
		return decimal.Zero
	case KindDeduction:
		return generic.MaxZero(theoretical.Sub(e.Hours))
	case KindAdditive:
		if e.CreditsActual {
			return theoretical.Add(e.Hours)
		}
		return theoretical
	default:
		return theoretical
	}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier validates activities against a category table.
type Classifier struct {
	Table     CategoryTable
	ExtraDuty ExtraDutyPolicy
}

// NewClassifier returns a classifier over the default table.
func NewClassifier(policy ExtraDutyPolicy) Classifier {
	return Classifier{Table: DefaultCategories(), ExtraDuty: policy}
}

// Classify validates an activity and returns its effect.
func (c Classifier) Classify(a Activity) (Effect, error) {
	rule, ok := c.Table[a.Category]
	if !ok {
		return Effect{}, &generic.ValidationError{
			Field:  "category",
			Value:  string(a.Category),
			Reason: "unknown activity category",
		}
	}

	if err := validateActivityHours(rule, a.Hours); err != nil {
		return Effect{}, err
	}

	effect := Effect{
		Category: rule.Category,
		Kind:     rule.Kind,
		Counter:  rule.Counter,
		Hours:    decimal.Zero,
	}
	if a.Hours != nil {
		effect.Hours = *a.Hours
	}
	if rule.Kind == KindAdditive {
		effect.CreditsActual = c.ExtraDuty == ExtraDutyAdditive
	}
	return effect, nil
}

func validateActivityHours(rule CategoryRule, h *decimal.Decimal) error {
	if !rule.RequiresHours {
		if h != nil {
			return &generic.ValidationError{
				Field:  "hours",
				Value:  h.String(),
				Reason: fmt.Sprintf("category %s does not take an hours value", rule.Category),
			}
		}
		return nil
	}
	if h == nil {
		return &generic.ValidationError{
			Field:  "hours",
			Reason: fmt.Sprintf("category %s requires an hours value", rule.Category),
		}
	}
	if !h.IsPositive() {
		return &generic.ValidationError{Field: "hours", Value: h.String(), Reason: "must be greater than 0"}
	}
	if h.GreaterThan(maxDailyHours) {
		return &generic.ValidationError{Field: "hours", Value: h.String(), Reason: "must not exceed 24"}
	}
	return nil
}
