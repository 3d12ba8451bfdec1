/*
benefits.go - Benefit balance calculator

PURPOSE:
  Answers "how much vacation and flexible time does this employee have left?"
  from the annual entitlements in the schedule and the usage counted in a
  PeriodSummary.

CALCULATION:
  remainingVacationDays = max(0, AnnualVacationDays - summary.VacationDays)
  remainingFlexHours    = max(0, AnnualFlexHours    - summary.FlexHoursUsed)

  Remaining never goes negative. When usage exceeds the entitlement the
  balance is reported as Overdrawn instead.

EXAMPLE:
  Entitlement 22 days / 40 hours, usage 25 days / 12 hours:

  Vacation: Remaining = 0 days, Overdrawn = true
  Flex:     Remaining = 28 hours

SEE ALSO:
  - summary.go: Produces the usage counters
  - accounting/service.go: Feeds it a year-to-date summary
*/
package hours

import (
	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

// Balance is one entitlement and its usage.
type Balance struct {
	Entitlement generic.Amount
	Used        generic.Amount
	Remaining   generic.Amount
	Overdrawn   bool
}

func newBalance(entitlement, used decimal.Decimal, unit generic.Unit) Balance {
	e := generic.NewAmountFromDecimal(entitlement, unit)
	u := generic.NewAmountFromDecimal(used, unit)
	raw := e.Sub(u)
	return Balance{
		Entitlement: e,
		Used:        u,
		Remaining:   raw.NonNegative(),
		Overdrawn:   raw.IsNegative(),
	}
}

// Benefits is the remaining vacation and flexible-time balance.
type Benefits struct {
	EmployeeID string
	Period     PeriodID
	Vacation   Balance
	Flex       Balance
}

// RemainingVacationDays is the floored vacation balance.
func (b Benefits) RemainingVacationDays() decimal.Decimal { return b.Vacation.Remaining.Value }

// RemainingFlexHours is the floored flexible-time balance.
func (b Benefits) RemainingFlexHours() decimal.Decimal { return b.Flex.Remaining.Value }

// RemainingBenefits computes balances from schedule entitlements and the
// usage in summary. Negative entitlements are rejected.
func RemainingBenefits(schedule ScheduleConfig, summary PeriodSummary) (Benefits, error) {
	if schedule.AnnualVacationDays < 0 || schedule.AnnualFlexHours.IsNegative() {
		return Benefits{}, schedule.Validate()
	}
	return Benefits{
		EmployeeID: summary.EmployeeID,
		Period:     summary.Period,
		Vacation: newBalance(
			decimal.NewFromInt(int64(schedule.AnnualVacationDays)),
			decimal.NewFromInt(int64(summary.VacationDays)),
			generic.UnitDays,
		),
		Flex: newBalance(schedule.AnnualFlexHours, summary.FlexHoursUsed, generic.UnitHours),
	}, nil
}
