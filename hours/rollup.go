/*
rollup.go - Team and organization rollups

PURPOSE:
  Combines per-employee summaries into team and organization totals, and
  classifies any efficiency into a performance tier.

EFFICIENCY:
  Rollup efficiency is hours-weighted:

    efficiency = sum(actual) / sum(theoretical) * 100

  It is NOT the mean of member efficiencies. An employee on leave all month
  has theoretical = 0 and an undefined efficiency; weighting by hours keeps
  that member from distorting the result. MeanEfficiency is available for
  callers who want the unweighted figure.

  Two members: {theoretical 0, actual 0} and {160, 150}
    Rollup         -> 150/160*100 = 93.75
    MeanEfficiency -> (0 + 93.75) / 2 = 46.88

TIERS:
  >= High (95)       -> high
  >= Acceptable (85) -> acceptable
  otherwise          -> needs_improvement

  The same thresholds apply to employees, teams and the organization.
*/
package hours

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/generic"
)

// =============================================================================
// PERFORMANCE TIERS
// =============================================================================

type PerformanceTier string

const (
	TierHigh             PerformanceTier = "high"
	TierAcceptable       PerformanceTier = "acceptable"
	TierNeedsImprovement PerformanceTier = "needs_improvement"
)

// TierThresholds are inclusive lower bounds in percent.
type TierThresholds struct {
	High       decimal.Decimal
	Acceptable decimal.Decimal
}

// DefaultTiers is 95 / 85.
var DefaultTiers = TierThresholds{
	High:       decimal.NewFromInt(95),
	Acceptable: decimal.NewFromInt(85),
}

func (t TierThresholds) Validate() error {
	if t.Acceptable.IsNegative() {
		return &generic.ConfigurationError{Field: "tiers.acceptable", Reason: "must not be negative"}
	}
	if t.High.LessThan(t.Acceptable) {
		return &generic.ConfigurationError{
			Field:  "tiers.high",
			Reason: fmt.Sprintf("must be at least tiers.acceptable (%s), got %s", t.Acceptable, t.High),
		}
	}
	return nil
}

// Classify places an efficiency in a tier.
func (t TierThresholds) Classify(efficiency decimal.Decimal) PerformanceTier {
	switch {
	case efficiency.GreaterThanOrEqual(t.High):
		return TierHigh
	case efficiency.GreaterThanOrEqual(t.Acceptable):
		return TierAcceptable
	default:
		return TierNeedsImprovement
	}
}

// =============================================================================
// ROLLUP SUMMARY
// =============================================================================

// RollupSummary is the sum of several PeriodSummary values.
type RollupSummary struct {
	Members int

	TheoreticalHours decimal.Decimal
	ActualHours      decimal.Decimal
	Efficiency       decimal.Decimal
	Tier             PerformanceTier

	VacationDays    int
	AbsenceDays     int
	FlexHoursUsed   decimal.Decimal
	ExtraDutyHours  decimal.Decimal
	TrainingHours   decimal.Decimal
	OtherPermitDays int
}

// Rollup aggregates summaries with DefaultTiers.
func Rollup(summaries []PeriodSummary) RollupSummary {
	return DefaultTiers.Rollup(summaries)
}

// Rollup aggregates summaries and classifies the weighted efficiency.
func (t TierThresholds) Rollup(summaries []PeriodSummary) RollupSummary {
	r := RollupSummary{
		Members:          len(summaries),
		TheoreticalHours: decimal.Zero,
		ActualHours:      decimal.Zero,
		FlexHoursUsed:    decimal.Zero,
		ExtraDutyHours:   decimal.Zero,
		TrainingHours:    decimal.Zero,
	}
	for _, s := range summaries {
		r.TheoreticalHours = r.TheoreticalHours.Add(s.TheoreticalHours)
		r.ActualHours = r.ActualHours.Add(s.ActualHours)
		r.VacationDays += s.VacationDays
		r.AbsenceDays += s.AbsenceDays
		r.OtherPermitDays += s.OtherPermitDays
		r.FlexHoursUsed = r.FlexHoursUsed.Add(s.FlexHoursUsed)
		r.ExtraDutyHours = r.ExtraDutyHours.Add(s.ExtraDutyHours)
		r.TrainingHours = r.TrainingHours.Add(s.TrainingHours)
	}
	r.Efficiency = generic.Percent(r.ActualHours, r.TheoreticalHours)
	r.Tier = t.Classify(r.Efficiency)
	return r
}

// MeanEfficiency is the unweighted mean of member efficiencies.
func MeanEfficiency(summaries []PeriodSummary) decimal.Decimal {
	if len(summaries) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, s := range summaries {
		sum = sum.Add(s.Efficiency)
	}
	return generic.Round2(sum.Div(decimal.NewFromInt(int64(len(summaries)))))
}

// =============================================================================
// TEAM / ORGANIZATION
// =============================================================================

// EmployeeSummary is one member's summary with its tier.
type EmployeeSummary struct {
	EmployeeID string
	Name       string
	TeamID     string
	Summary    PeriodSummary
	Tier       PerformanceTier
}

// Member wraps a summary for rollups.
func (t TierThresholds) Member(employee Employee, summary PeriodSummary) EmployeeSummary {
	return EmployeeSummary{
		EmployeeID: employee.ID,
		Name:       employee.Name,
		TeamID:     employee.TeamID,
		Summary:    summary,
		Tier:       t.Classify(summary.Efficiency),
	}
}

// RankEmployees returns a copy sorted by efficiency, highest first, ties
// by employee ID.
func RankEmployees(members []EmployeeSummary) []EmployeeSummary {
	ranked := make([]EmployeeSummary, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		ei, ej := ranked[i].Summary.Efficiency, ranked[j].Summary.Efficiency
		if !ei.Equal(ej) {
			return ei.GreaterThan(ej)
		}
		return ranked[i].EmployeeID < ranked[j].EmployeeID
	})
	return ranked
}

// TeamRollup is one team's totals and ranked members.
type TeamRollup struct {
	TeamID         string
	Summary        RollupSummary
	MeanEfficiency decimal.Decimal
	Members        []EmployeeSummary
}

// OrganizationRollup is every team plus the organization-wide totals.
type OrganizationRollup struct {
	Teams          []TeamRollup
	Summary        RollupSummary
	MeanEfficiency decimal.Decimal
}

func summariesOf(members []EmployeeSummary) []PeriodSummary {
	out := make([]PeriodSummary, len(members))
	for i, m := range members {
		out[i] = m.Summary
	}
	return out
}

// Team rolls up one team.
func (t TierThresholds) Team(teamID string, members []EmployeeSummary) TeamRollup {
	summaries := summariesOf(members)
	return TeamRollup{
		TeamID:         teamID,
		Summary:        t.Rollup(summaries),
		MeanEfficiency: MeanEfficiency(summaries),
		Members:        RankEmployees(members),
	}
}

// RollupTeams rolls up every team and the organization over all members.
// Teams come back sorted by ID.
func (t TierThresholds) RollupTeams(byTeam map[string][]EmployeeSummary) OrganizationRollup {
	ids := make([]string, 0, len(byTeam))
	for id := range byTeam {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	org := OrganizationRollup{Teams: make([]TeamRollup, 0, len(ids))}
	var all []PeriodSummary
	for _, id := range ids {
		org.Teams = append(org.Teams, t.Team(id, byTeam[id]))
		all = append(all, summariesOf(byTeam[id])...)
	}
	org.Summary = t.Rollup(all)
	org.MeanEfficiency = MeanEfficiency(all)
	return org
}
