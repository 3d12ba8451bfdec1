/*
Package accounting loads engine inputs from collaborators and runs the hours
engine over them.

PURPOSE:
  The hours package is pure: it takes a schedule, a date-indexed activity
  set and a holiday predicate. Service is the layer that fetches those
  inputs from a Directory, ActivitySource and HolidaySource, calls the
  engine and logs what happened.

HOLIDAY PREFETCH:
  The engine asks "is this a holiday?" once per iterated day. Service
  fetches the holidays for the whole requested range once per call and
  hands the engine an in-memory generic.HolidaySet, so a yearly summary
  costs one holiday query instead of 365.

FAILURE POLICY:
  Engine errors are returned unchanged (wrapped with context). Rollups
  abort on the first failing member unless Options.SkipInvalidMembers is
  set, in which case the member is logged and left out.

EXAMPLE:
  svc, err := accounting.NewService(store, store, store, accounting.Options{
      ExtraDuty: hours.ExtraDutyInformational,
      Logger:    logger,
  })
  summary, err := svc.EmployeeSummary(ctx, "emp-1", 2025, 3)

SEE ALSO:
  - ports.go: Collaborator interfaces
  - store/sqlite, store/memory: Implementations
  - api/handlers.go: HTTP surface
*/
package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// UnassignedTeam groups employees without a team in organization rollups.
const UnassignedTeam = "unassigned"

// Options configure a Service.
type Options struct {
	ExtraDuty hours.ExtraDutyPolicy

	// Projection fallback in percent; zero means 100
	DefaultEfficiency decimal.Decimal

	// Zero High and Acceptable mean hours.DefaultTiers
	Tiers hours.TierThresholds

	// Skip members whose data fails validation instead of failing rollups
	SkipInvalidMembers bool

	// Today overrides the clock (tests)
	Today func() generic.Date

	Logger *zap.Logger
}

// Service runs the hours engine over collaborator data.
type Service struct {
	directory  Directory
	activities ActivitySource
	holidays   HolidaySource

	calc       *hours.Calculator
	tiers      hours.TierThresholds
	defaultEff decimal.Decimal
	skip       bool
	today      func() generic.Date
	logger     *zap.Logger
}

// NewService validates opts and builds a Service.
func NewService(dir Directory, acts ActivitySource, hols HolidaySource, opts Options) (*Service, error) {
	policy, err := hours.ParseExtraDutyPolicy(string(opts.ExtraDuty))
	if err != nil {
		return nil, err
	}

	tiers := opts.Tiers
	if tiers.High.IsZero() && tiers.Acceptable.IsZero() {
		tiers = hours.DefaultTiers
	}
	if err := tiers.Validate(); err != nil {
		return nil, err
	}

	eff := opts.DefaultEfficiency
	if eff.IsZero() {
		eff = decimal.NewFromInt(100)
	}
	if eff.IsNegative() {
		return nil, &generic.ConfigurationError{Field: "default_efficiency", Reason: "must not be negative"}
	}

	today := opts.Today
	if today == nil {
		today = generic.Today
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		directory:  dir,
		activities: acts,
		holidays:   hols,
		calc:       hours.NewCalculator(hours.NewClassifier(policy)),
		tiers:      tiers,
		defaultEff: eff,
		skip:       opts.SkipInvalidMembers,
		today:      today,
		logger:     logger,
	}, nil
}

// Tiers returns the thresholds used for classification.
func (s *Service) Tiers() hours.TierThresholds { return s.tiers }

// =============================================================================
// INPUT LOADING
// =============================================================================

type inputs struct {
	activities hours.ActivityIndex
	holidays   generic.HolidaySet
}

func (s *Service) load(ctx context.Context, emp hours.Employee, period generic.Period) (inputs, error) {
	acts, err := s.activities.ActivitiesInRange(ctx, emp.ID, period)
	if err != nil {
		return inputs{}, fmt.Errorf("load activities for %s: %w", emp.ID, err)
	}
	idx, err := hours.IndexActivities(acts)
	if err != nil {
		s.logger.Error("Activity data violates one-per-day rule",
			zap.String("employee", emp.ID), zap.Error(err))
		return inputs{}, err
	}

	hols, err := s.holidays.HolidaysInRange(ctx, emp.Location, period)
	if err != nil {
		return inputs{}, fmt.Errorf("load holidays for %s: %w", emp.Location, err)
	}
	set := generic.NewHolidaySet(hols, emp.Location, period)

	s.logger.Debug("Loaded engine inputs",
		zap.String("employee", emp.ID),
		zap.Stringer("period", period),
		zap.Int("activities", len(idx)),
		zap.Int("holidays", set.Len()))
	return inputs{activities: idx, holidays: set}, nil
}

func (s *Service) employee(ctx context.Context, id string) (hours.Employee, error) {
	emp, err := s.directory.GetEmployee(ctx, id)
	if err != nil {
		return hours.Employee{}, fmt.Errorf("employee %s: %w", id, err)
	}
	return emp, nil
}

func validMonth(month int) error {
	if month < 0 || month > 12 {
		return &generic.ValidationError{Field: "month", Value: month, Reason: "must be between 1 and 12, or 0 for the whole year"}
	}
	return nil
}

// selection returns the calendar range for (year, month); month 0 is the
// whole year.
func selection(year, month int) generic.Period {
	if month == 0 {
		return generic.YearPeriod(year)
	}
	return generic.MonthPeriod(year, time.Month(month))
}

// =============================================================================
// EMPLOYEE OPERATIONS
// =============================================================================

// EmployeeSummary summarizes one employee for a month, or the whole year
// when month is 0.
func (s *Service) EmployeeSummary(ctx context.Context, id string, year, month int) (hours.PeriodSummary, error) {
	if err := validMonth(month); err != nil {
		return hours.PeriodSummary{}, err
	}
	emp, err := s.employee(ctx, id)
	if err != nil {
		return hours.PeriodSummary{}, err
	}
	return s.summarize(ctx, emp, year, month)
}

func (s *Service) summarize(ctx context.Context, emp hours.Employee, year, month int) (hours.PeriodSummary, error) {
	in, err := s.load(ctx, emp, selection(year, month))
	if err != nil {
		return hours.PeriodSummary{}, err
	}

	var summary hours.PeriodSummary
	if month == 0 {
		summary, err = s.calc.SummarizeYear(emp, in.activities, in.holidays, year)
	} else {
		summary, err = s.calc.SummarizeMonth(emp, in.activities, in.holidays, year, time.Month(month))
	}
	if err != nil {
		s.logger.Warn("Summary failed", zap.String("employee", emp.ID), zap.Int("year", year), zap.Int("month", month), zap.Error(err))
		return hours.PeriodSummary{}, err
	}

	s.logger.Debug("Computed summary",
		zap.String("employee", emp.ID),
		zap.Stringer("period", summary.Period),
		zap.Stringer("efficiency", summary.Efficiency))
	return summary, nil
}

// EmployeeMonths summarizes each calendar month of year.
func (s *Service) EmployeeMonths(ctx context.Context, id string, year int) ([]hours.PeriodSummary, error) {
	emp, err := s.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.load(ctx, emp, generic.YearPeriod(year))
	if err != nil {
		return nil, err
	}
	return s.calc.MonthlyBreakdown(emp, in.activities, in.holidays, year)
}

// EmployeeBenefits returns remaining vacation and flexible time for year,
// counting usage from January 1 through today (or year end for a past
// year). A future year has no usage yet.
func (s *Service) EmployeeBenefits(ctx context.Context, id string, year int) (hours.Benefits, error) {
	emp, err := s.employee(ctx, id)
	if err != nil {
		return hours.Benefits{}, err
	}

	period := generic.YearPeriod(year)
	if today := s.today(); today.Before(period.End) {
		period.End = today
	}

	usage := hours.PeriodSummary{
		EmployeeID:    emp.ID,
		Period:        hours.PeriodID{Kind: hours.PeriodCustom, Year: year, Start: period.Start, End: period.End},
		FlexHoursUsed: decimal.Zero,
	}
	if !period.End.Before(period.Start) {
		in, err := s.load(ctx, emp, period)
		if err != nil {
			return hours.Benefits{}, err
		}
		usage, err = s.calc.Summarize(emp, in.activities, in.holidays, period)
		if err != nil {
			return hours.Benefits{}, err
		}
	}

	return hours.RemainingBenefits(emp.Schedule, usage)
}

// BillingReport is an employee's summary over their company's billing
// window.
type BillingReport struct {
	Company hours.Company
	Summary hours.PeriodSummary
	Tier    hours.PerformanceTier
}

// EmployeeBilling summarizes the billing window of the employee's company
// referenced by (year, month). Employees without a company bill by
// calendar month.
func (s *Service) EmployeeBilling(ctx context.Context, id string, year, month int) (BillingReport, error) {
	emp, err := s.employee(ctx, id)
	if err != nil {
		return BillingReport{}, err
	}

	company := hours.Company{Billing: hours.DefaultBilling}
	if emp.CompanyID != "" {
		company, err = s.directory.GetCompany(ctx, emp.CompanyID)
		if err != nil {
			return BillingReport{}, fmt.Errorf("company %s: %w", emp.CompanyID, err)
		}
	}

	return s.bill(ctx, emp, company, year, month)
}

func (s *Service) bill(ctx context.Context, emp hours.Employee, company hours.Company, year, month int) (BillingReport, error) {
	period, err := hours.ResolvePeriod(company.Billing, year, time.Month(month))
	if err != nil {
		return BillingReport{}, err
	}
	in, err := s.load(ctx, emp, period)
	if err != nil {
		return BillingReport{}, err
	}
	summary, err := s.calc.SummarizeBilling(emp, in.activities, in.holidays, company.Billing, year, time.Month(month))
	if err != nil {
		return BillingReport{}, err
	}

	s.logger.Debug("Computed billing summary",
		zap.String("employee", emp.ID),
		zap.String("company", company.ID),
		zap.Stringer("period", period))
	return BillingReport{Company: company, Summary: summary, Tier: s.tiers.Classify(summary.Efficiency)}, nil
}

// CompanyBillingReport is every employee of one company over a shared
// billing window.
type CompanyBillingReport struct {
	Company   hours.Company
	Period    generic.Period
	Employees []BillingReport
	Summary   hours.RollupSummary
}

// CompanyBilling bills every employee of companyID for the window
// referenced by (year, month), ordered by employee ID.
func (s *Service) CompanyBilling(ctx context.Context, companyID string, year, month int) (CompanyBillingReport, error) {
	company, err := s.directory.GetCompany(ctx, companyID)
	if err != nil {
		return CompanyBillingReport{}, fmt.Errorf("company %s: %w", companyID, err)
	}
	period, err := hours.ResolvePeriod(company.Billing, year, time.Month(month))
	if err != nil {
		return CompanyBillingReport{}, err
	}
	employees, err := s.directory.ListEmployees(ctx)
	if err != nil {
		return CompanyBillingReport{}, fmt.Errorf("list employees: %w", err)
	}

	out := CompanyBillingReport{Company: company, Period: period, Employees: []BillingReport{}}
	summaries := make([]hours.PeriodSummary, 0, len(employees))
	for _, emp := range employees {
		if emp.CompanyID != companyID {
			continue
		}
		report, err := s.bill(ctx, emp, company, year, month)
		if err != nil {
			if s.skip && generic.IsClientError(err) {
				s.logger.Warn("Skipping employee with invalid data", zap.String("employee", emp.ID), zap.Error(err))
				continue
			}
			return CompanyBillingReport{}, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		out.Employees = append(out.Employees, report)
		summaries = append(summaries, report.Summary)
	}
	out.Summary = s.tiers.Rollup(summaries)

	s.logger.Info("Computed company billing",
		zap.String("company", companyID),
		zap.Stringer("period", period),
		zap.Int("employees", len(out.Employees)))
	return out, nil
}

// EmployeeProjection projects the employee's hours for year.
func (s *Service) EmployeeProjection(ctx context.Context, id string, year int) (hours.YearForecast, error) {
	emp, err := s.employee(ctx, id)
	if err != nil {
		return hours.YearForecast{}, err
	}

	projector := hours.Projector{Calculator: s.calc, Today: s.today(), DefaultEfficiency: s.defaultEff}
	in, err := s.load(ctx, emp, projector.HistoryPeriod(year))
	if err != nil {
		return hours.YearForecast{}, err
	}
	months, err := projector.ProjectYear(emp, in.activities, in.holidays, year)
	if err != nil {
		return hours.YearForecast{}, err
	}

	forecast := hours.Forecast(year, months)
	s.logger.Debug("Computed projection",
		zap.String("employee", emp.ID),
		zap.Int("year", year),
		zap.Int("projected_months", forecast.ProjectedMonths),
		zap.Stringer("efficiency", forecast.Efficiency))
	return forecast, nil
}

// =============================================================================
// ROLLUPS
// =============================================================================

func (s *Service) members(ctx context.Context, employees []hours.Employee, year, month int) ([]hours.EmployeeSummary, error) {
	out := make([]hours.EmployeeSummary, 0, len(employees))
	for _, emp := range employees {
		summary, err := s.summarize(ctx, emp, year, month)
		if err != nil {
			if s.skip && generic.IsClientError(err) {
				s.logger.Warn("Skipping member with invalid data", zap.String("employee", emp.ID), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("member %s: %w", emp.ID, err)
		}
		out = append(out, s.tiers.Member(emp, summary))
	}
	return out, nil
}

// TeamRollup rolls up a team for a month, or the whole year when month is 0.
func (s *Service) TeamRollup(ctx context.Context, teamID string, year, month int) (hours.TeamRollup, error) {
	if err := validMonth(month); err != nil {
		return hours.TeamRollup{}, err
	}
	employees, err := s.directory.ListTeam(ctx, teamID)
	if err != nil {
		return hours.TeamRollup{}, fmt.Errorf("list team %s: %w", teamID, err)
	}
	if len(employees) == 0 {
		return hours.TeamRollup{}, fmt.Errorf("team %s: %w", teamID, generic.ErrTeamNotFound)
	}

	members, err := s.members(ctx, employees, year, month)
	if err != nil {
		return hours.TeamRollup{}, err
	}
	rollup := s.tiers.Team(teamID, members)
	s.logger.Info("Computed team rollup",
		zap.String("team", teamID),
		zap.Int("members", rollup.Summary.Members),
		zap.Stringer("efficiency", rollup.Summary.Efficiency))
	return rollup, nil
}

// OrganizationRollup rolls up every employee, grouped by team.
func (s *Service) OrganizationRollup(ctx context.Context, year, month int) (hours.OrganizationRollup, error) {
	if err := validMonth(month); err != nil {
		return hours.OrganizationRollup{}, err
	}
	employees, err := s.directory.ListEmployees(ctx)
	if err != nil {
		return hours.OrganizationRollup{}, fmt.Errorf("list employees: %w", err)
	}

	members, err := s.members(ctx, employees, year, month)
	if err != nil {
		return hours.OrganizationRollup{}, err
	}
	byTeam := make(map[string][]hours.EmployeeSummary)
	for _, m := range members {
		team := m.TeamID
		if team == "" {
			team = UnassignedTeam
		}
		byTeam[team] = append(byTeam[team], m)
	}

	org := s.tiers.RollupTeams(byTeam)
	s.logger.Info("Computed organization rollup",
		zap.Int("teams", len(org.Teams)),
		zap.Int("members", org.Summary.Members),
		zap.Stringer("efficiency", org.Summary.Efficiency))
	return org, nil
}
