/*
Package generic provides the calendar and quantity primitives the hours
engine is built on.

PURPOSE:
  This package contains domain-agnostic types shared by the engine, the
  reference stores and the API: calendar days, inclusive periods, unit-tagged
  quantities, holiday lookup and the error taxonomy. Nothing here knows what
  a vacation day or a billing window is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 5 days, 7.5 hours)
  - Round2: Two-decimal rounding used for every reported figure

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift when
     hours are summed over a year
  2. Value types: Everything is copied, nothing is shared or mutated
  3. Calendar arithmetic goes through time.Time (AddDate, month rollover),
     never through hand-rolled day counting

USAGE:
  remaining := generic.NewAmount(22, generic.UnitDays).Sub(used)
  hours := generic.Hours(7.5)

SEE ALSO:
  - time.go: Date and calendar helpers
  - period.go: Period ranges and iteration
  - holiday.go: Location hierarchy and holiday lookup
  - errors.go: ValidationError / ConfigurationError
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

var hundred = decimal.NewFromInt(100)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

// Hours is shorthand for a decimal hour value.
func Hours(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

func (a Amount) Zero() Amount        { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) IsNegative() bool    { return a.Value.IsNegative() }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }

// NonNegative floors the amount at zero.
func (a Amount) NonNegative() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// =============================================================================
// ROUNDING & RATIOS
// =============================================================================

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns part/whole*100 rounded to two decimals, or zero when
// whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round2(part.Div(whole).Mul(hundred))
}

// MaxZero floors a decimal at zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
