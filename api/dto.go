/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine values are
  decimals; responses carry them as JSON numbers (float64) rounded the way
  the engine rounds them, so clients never parse strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done by the factory and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/factory.go: ScheduleJSON, BillingJSON, ActivityJSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// DIRECTORY
// =============================================================================

type LocationDTO struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// EmployeeDTO is both the create request and the response body.
type EmployeeDTO struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	TeamID    string               `json:"team_id,omitempty"`
	CompanyID string               `json:"company_id,omitempty"`
	Location  LocationDTO          `json:"location"`
	Schedule  factory.ScheduleJSON `json:"schedule"`
}

type CompanyDTO struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Billing factory.BillingJSON `json:"billing"`
}

type HolidayDTO struct {
	ID        string      `json:"id,omitempty"`
	Date      string      `json:"date"` // YYYY-MM-DD
	Name      string      `json:"name"`
	Scope     LocationDTO `json:"scope"`
	Recurring bool        `json:"recurring,omitempty"`
}

// ImportActivitiesRequest records several activities in one call.
type ImportActivitiesRequest struct {
	Activities []factory.ActivityJSON `json:"activities"`
}

type ImportActivitiesResponse struct {
	Imported int `json:"imported"`
}

// =============================================================================
// SUMMARIES
// =============================================================================

type SummaryDTO struct {
	EmployeeID string `json:"employee_id"`
	Period     string `json:"period"`
	Kind       string `json:"kind"`
	Start      string `json:"start"`
	End        string `json:"end"`

	TheoreticalHours float64 `json:"theoretical_hours"`
	ActualHours      float64 `json:"actual_hours"`
	Efficiency       float64 `json:"efficiency"`

	VacationDays    int     `json:"vacation_days"`
	AbsenceDays     int     `json:"absence_days"`
	FlexHoursUsed   float64 `json:"flex_hours_used"`
	ExtraDutyHours  float64 `json:"extra_duty_hours"`
	TrainingHours   float64 `json:"training_hours"`
	OtherPermitDays int     `json:"other_permit_days"`
	WorkingDays     int     `json:"working_days"`
	HolidayDays     int     `json:"holiday_days"`
}

type BalanceDTO struct {
	Entitlement float64 `json:"entitlement"`
	Used        float64 `json:"used"`
	Remaining   float64 `json:"remaining"`
	Unit        string  `json:"unit"`
	Overdrawn   bool    `json:"overdrawn"`
}

type BenefitsDTO struct {
	EmployeeID string     `json:"employee_id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Vacation   BalanceDTO `json:"vacation"`
	Flex       BalanceDTO `json:"flex"`
}

type BillingDTO struct {
	Company CompanyDTO `json:"company"`
	Summary SummaryDTO `json:"summary"`
	Tier    string     `json:"tier"`
}

type CompanyBillingDTO struct {
	Company   CompanyDTO   `json:"company"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Employees []BillingDTO `json:"employees"`
	Summary   RollupDTO    `json:"summary"`
}

// =============================================================================
// PROJECTION
// =============================================================================

type ProjectionMonthDTO struct {
	Month            string  `json:"month"` // YYYY-MM
	Projected        bool    `json:"projected"`
	TheoreticalHours float64 `json:"theoretical_hours"`
	Hours            float64 `json:"hours"`
	Efficiency       float64 `json:"efficiency"`
}

type ProjectionDTO struct {
	Year             int                  `json:"year"`
	Months           []ProjectionMonthDTO `json:"months"`
	TheoreticalHours float64              `json:"theoretical_hours"`
	ActualHours      float64              `json:"actual_hours"`
	ProjectedHours   float64              `json:"projected_hours"`
	TotalHours       float64              `json:"total_hours"`
	Efficiency       float64              `json:"efficiency"`
	ProjectedMonths  int                  `json:"projected_months"`
}

// =============================================================================
// ROLLUPS
// =============================================================================

type RollupDTO struct {
	Members          int     `json:"members"`
	TheoreticalHours float64 `json:"theoretical_hours"`
	ActualHours      float64 `json:"actual_hours"`
	Efficiency       float64 `json:"efficiency"`
	Tier             string  `json:"tier"`
	VacationDays     int     `json:"vacation_days"`
	AbsenceDays      int     `json:"absence_days"`
	FlexHoursUsed    float64 `json:"flex_hours_used"`
	ExtraDutyHours   float64 `json:"extra_duty_hours"`
	TrainingHours    float64 `json:"training_hours"`
	OtherPermitDays  int     `json:"other_permit_days"`
}

type MemberDTO struct {
	EmployeeID string     `json:"employee_id"`
	Name       string     `json:"name"`
	TeamID     string     `json:"team_id,omitempty"`
	Tier       string     `json:"tier"`
	Summary    SummaryDTO `json:"summary"`
}

type TeamRollupDTO struct {
	TeamID         string      `json:"team_id"`
	Summary        RollupDTO   `json:"summary"`
	MeanEfficiency float64     `json:"mean_efficiency"`
	Members        []MemberDTO `json:"members"`
}

type OrganizationRollupDTO struct {
	Teams          []TeamRollupDTO `json:"teams"`
	Summary        RollupDTO       `json:"summary"`
	MeanEfficiency float64         `json:"mean_efficiency"`
}

// BillingCloseDTO is one recorded billing close.
type BillingCloseDTO struct {
	CompanyID  string    `json:"company_id"`
	Period     string    `json:"period"` // YYYY-MM reference month
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Employees  int       `json:"employees"`
	Efficiency float64   `json:"efficiency"`
	Tier       string    `json:"tier"`
	ClosedAt   time.Time `json:"closed_at"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

func toLocationDTO(l generic.Location) LocationDTO {
	return LocationDTO{Country: l.Country, Region: l.Region, City: l.City}
}

func (l LocationDTO) location() generic.Location {
	return generic.Location{Country: l.Country, Region: l.Region, City: l.City}
}

func toCompanyDTO(c hours.Company) CompanyDTO {
	return CompanyDTO{
		ID:      c.ID,
		Name:    c.Name,
		Billing: factory.BillingJSON{StartDay: c.Billing.StartDay, EndDay: c.Billing.EndDay},
	}
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		Date:      h.Date.String(),
		Name:      h.Name,
		Scope:     toLocationDTO(h.Scope),
		Recurring: h.Recurring,
	}
}

func ToSummaryDTO(s hours.PeriodSummary) SummaryDTO {
	return SummaryDTO{
		EmployeeID:       s.EmployeeID,
		Period:           s.Period.String(),
		Kind:             string(s.Period.Kind),
		Start:            s.Period.Start.String(),
		End:              s.Period.End.String(),
		TheoreticalHours: num(s.TheoreticalHours),
		ActualHours:      num(s.ActualHours),
		Efficiency:       num(s.Efficiency),
		VacationDays:     s.VacationDays,
		AbsenceDays:      s.AbsenceDays,
		FlexHoursUsed:    num(s.FlexHoursUsed),
		ExtraDutyHours:   num(s.ExtraDutyHours),
		TrainingHours:    num(s.TrainingHours),
		OtherPermitDays:  s.OtherPermitDays,
		WorkingDays:      s.WorkingDays,
		HolidayDays:      s.HolidayDays,
	}
}

func toBalanceDTO(b hours.Balance) BalanceDTO {
	return BalanceDTO{
		Entitlement: num(b.Entitlement.Value),
		Used:        num(b.Used.Value),
		Remaining:   num(b.Remaining.Value),
		Unit:        string(b.Entitlement.Unit),
		Overdrawn:   b.Overdrawn,
	}
}

func ToBenefitsDTO(b hours.Benefits) BenefitsDTO {
	return BenefitsDTO{
		EmployeeID: b.EmployeeID,
		Start:      b.Period.Start.String(),
		End:        b.Period.End.String(),
		Vacation:   toBalanceDTO(b.Vacation),
		Flex:       toBalanceDTO(b.Flex),
	}
}

func ToBillingDTO(r accounting.BillingReport) BillingDTO {
	return BillingDTO{
		Company: toCompanyDTO(r.Company),
		Summary: ToSummaryDTO(r.Summary),
		Tier:    string(r.Tier),
	}
}

func ToCompanyBillingDTO(r accounting.CompanyBillingReport) CompanyBillingDTO {
	dto := CompanyBillingDTO{
		Company:   toCompanyDTO(r.Company),
		Start:     r.Period.Start.String(),
		End:       r.Period.End.String(),
		Employees: make([]BillingDTO, len(r.Employees)),
		Summary:   toRollupDTO(r.Summary),
	}
	for i, e := range r.Employees {
		dto.Employees[i] = ToBillingDTO(e)
	}
	return dto
}

func ToProjectionDTO(f hours.YearForecast) ProjectionDTO {
	dto := ProjectionDTO{
		Year:             f.Year,
		Months:           make([]ProjectionMonthDTO, len(f.Months)),
		TheoreticalHours: num(f.TheoreticalHours),
		ActualHours:      num(f.ActualHours),
		ProjectedHours:   num(f.ProjectedHours),
		TotalHours:       num(f.TotalHours),
		Efficiency:       num(f.Efficiency),
		ProjectedMonths:  f.ProjectedMonths,
	}
	for i, m := range f.Months {
		dto.Months[i] = ProjectionMonthDTO{
			Month:            hours.PeriodID{Kind: hours.PeriodMonth, Year: m.Year, Month: m.Month}.String(),
			Projected:        m.Projected,
			TheoreticalHours: num(m.TheoreticalHours),
			Hours:            num(m.Hours),
			Efficiency:       num(m.Efficiency),
		}
	}
	return dto
}

func toRollupDTO(r hours.RollupSummary) RollupDTO {
	return RollupDTO{
		Members:          r.Members,
		TheoreticalHours: num(r.TheoreticalHours),
		ActualHours:      num(r.ActualHours),
		Efficiency:       num(r.Efficiency),
		Tier:             string(r.Tier),
		VacationDays:     r.VacationDays,
		AbsenceDays:      r.AbsenceDays,
		FlexHoursUsed:    num(r.FlexHoursUsed),
		ExtraDutyHours:   num(r.ExtraDutyHours),
		TrainingHours:    num(r.TrainingHours),
		OtherPermitDays:  r.OtherPermitDays,
	}
}

func ToTeamRollupDTO(t hours.TeamRollup) TeamRollupDTO {
	dto := TeamRollupDTO{
		TeamID:         t.TeamID,
		Summary:        toRollupDTO(t.Summary),
		MeanEfficiency: num(t.MeanEfficiency),
		Members:        make([]MemberDTO, len(t.Members)),
	}
	for i, m := range t.Members {
		dto.Members[i] = MemberDTO{
			EmployeeID: m.EmployeeID,
			Name:       m.Name,
			TeamID:     m.TeamID,
			Tier:       string(m.Tier),
			Summary:    ToSummaryDTO(m.Summary),
		}
	}
	return dto
}

func ToOrganizationRollupDTO(o hours.OrganizationRollup) OrganizationRollupDTO {
	dto := OrganizationRollupDTO{
		Teams:          make([]TeamRollupDTO, len(o.Teams)),
		Summary:        toRollupDTO(o.Summary),
		MeanEfficiency: num(o.MeanEfficiency),
	}
	for i, t := range o.Teams {
		dto.Teams[i] = ToTeamRollupDTO(t)
	}
	return dto
}
