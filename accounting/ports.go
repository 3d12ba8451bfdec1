package accounting

import (
	"context"

	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// COLLABORATORS - Where the service reads its inputs
// =============================================================================

// Directory resolves employees and companies.
type Directory interface {
	// GetEmployee returns generic.ErrEmployeeNotFound for an unknown ID.
	GetEmployee(ctx context.Context, id string) (hours.Employee, error)
	ListEmployees(ctx context.Context) ([]hours.Employee, error)
	ListTeam(ctx context.Context, teamID string) ([]hours.Employee, error)

	// GetCompany returns generic.ErrCompanyNotFound for an unknown ID.
	GetCompany(ctx context.Context, id string) (hours.Company, error)
	ListCompanies(ctx context.Context) ([]hours.Company, error)
}

// ActivitySource returns an employee's activity records.
type ActivitySource interface {
	ActivitiesInRange(ctx context.Context, employeeID string, period generic.Period) ([]hours.Activity, error)
}

// HolidaySource returns the holidays observed at a location. Recurring
// holidays may be returned with any year; the service expands them.
type HolidaySource interface {
	HolidaysInRange(ctx context.Context, loc generic.Location, period generic.Period) ([]generic.Holiday, error)
}

// Writer persists the records the service reads.
type Writer interface {
	SaveEmployee(ctx context.Context, e hours.Employee) error
	SaveCompany(ctx context.Context, c hours.Company) error
	SaveActivity(ctx context.Context, a hours.Activity) error
	ImportActivities(ctx context.Context, batch []hours.Activity) error
	SaveHoliday(ctx context.Context, h generic.Holiday) error
}

// Repository is a store that serves every collaborator.
type Repository interface {
	Directory
	ActivitySource
	HolidaySource
	Writer
}
