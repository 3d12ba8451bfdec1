// Package memory provides an in-memory implementation of the accounting
// collaborators (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	employees  map[string]hours.Employee
	companies  map[string]hours.Company
	activities map[string][]hours.Activity // per employee, sorted by date
	holidays   []generic.Holiday
}

func New() *Memory {
	return &Memory{
		employees:  make(map[string]hours.Employee),
		companies:  make(map[string]hours.Company),
		activities: make(map[string][]hours.Activity),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e hours.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = cloneEmployee(e)
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (hours.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return hours.Employee{}, generic.ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

// cloneEmployee copies the season override so callers never share it with
// the store.
func cloneEmployee(e hours.Employee) hours.Employee {
	if e.Schedule.Season != nil {
		season := *e.Schedule.Season
		season.Months = append([]time.Month(nil), season.Months...)
		e.Schedule.Season = &season
	}
	return e
}

// ListEmployees returns every employee ordered by ID.
func (m *Memory) ListEmployees(_ context.Context) ([]hours.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterLocked(func(hours.Employee) bool { return true }), nil
}

func (m *Memory) ListTeam(_ context.Context, teamID string) ([]hours.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterLocked(func(e hours.Employee) bool { return e.TeamID == teamID }), nil
}

func (m *Memory) filterLocked(keep func(hours.Employee) bool) []hours.Employee {
	out := make([]hours.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		if keep(e) {
			out = append(out, cloneEmployee(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) SaveCompany(_ context.Context, c hours.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = c
	return nil
}

func (m *Memory) GetCompany(_ context.Context, id string) (hours.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return hours.Company{}, generic.ErrCompanyNotFound
	}
	return c, nil
}

// ListCompanies returns every company ordered by ID.
func (m *Memory) ListCompanies(_ context.Context) ([]hours.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]hours.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// ACTIVITIES
// =============================================================================

// SaveActivity records one activity. A second activity for the same
// employee and date is rejected.
func (m *Memory) SaveActivity(_ context.Context, a hours.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(a, nil); err != nil {
		return err
	}
	m.insertLocked(a)
	return nil
}

// ImportActivities records a batch atomically: either every activity is
// stored or none is.
func (m *Memory) ImportActivities(_ context.Context, batch []hours.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]map[generic.Date]bool)
	for _, a := range batch {
		if err := m.checkLocked(a, seen[a.EmployeeID]); err != nil {
			return err
		}
		if seen[a.EmployeeID] == nil {
			seen[a.EmployeeID] = make(map[generic.Date]bool)
		}
		seen[a.EmployeeID][a.Date] = true
	}
	for _, a := range batch {
		m.insertLocked(a)
	}
	return nil
}

func (m *Memory) checkLocked(a hours.Activity, pending map[generic.Date]bool) error {
	if _, ok := m.employees[a.EmployeeID]; !ok {
		return generic.ErrEmployeeNotFound
	}
	if pending[a.Date] {
		return &generic.DuplicateActivityError{EmployeeID: a.EmployeeID, Date: a.Date}
	}
	acts := m.activities[a.EmployeeID]
	i := sort.Search(len(acts), func(i int) bool { return !acts[i].Date.Before(a.Date) })
	if i < len(acts) && acts[i].Date == a.Date {
		return &generic.DuplicateActivityError{EmployeeID: a.EmployeeID, Date: a.Date}
	}
	return nil
}

func (m *Memory) insertLocked(a hours.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	acts := m.activities[a.EmployeeID]

	// Binary search for insertion point
	i := sort.Search(len(acts), func(i int) bool { return acts[i].Date.After(a.Date) })

	acts = append(acts, hours.Activity{})
	copy(acts[i+1:], acts[i:])
	acts[i] = a
	m.activities[a.EmployeeID] = acts
}

// ActivitiesInRange returns the employee's activities within period, in
// date order.
func (m *Memory) ActivitiesInRange(_ context.Context, employeeID string, period generic.Period) ([]hours.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []hours.Activity
	for _, a := range m.activities[employeeID] {
		if period.Contains(a.Date) {
			result = append(result, a)
		}
	}
	return result, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.holidays {
		if existing.ID == h.ID {
			m.holidays[i] = h
			return nil
		}
	}
	m.holidays = append(m.holidays, h)
	return nil
}

// HolidaysInRange returns the holidays that apply to loc and may occur in
// period. Recurring holidays are always returned; expanding them is the
// caller's job.
func (m *Memory) HolidaysInRange(_ context.Context, loc generic.Location, period generic.Period) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Holiday
	for _, h := range m.holidays {
		if !h.AppliesTo(loc) {
			continue
		}
		if h.Recurring || period.Contains(h.Date) {
			result = append(result, h)
		}
	}
	return result, nil
}
