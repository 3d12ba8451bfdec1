/*
Package sqlite provides a SQLite-backed implementation of the accounting
collaborators.

PURPOSE:
  Persists employees, companies, activity records and holidays, and serves
  them to accounting.Service through the Directory, ActivitySource and
  HolidaySource interfaces. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:  Employee records with their schedule as JSON
  companies:  Billing window per company
  activities: Calendar exceptions, one per employee per date
  holidays:   Non-working dates scoped to country / region / city

UNIQUENESS:
  idx_unique_activity_day enforces at most one activity per
  (employee_id, date). A violation is returned as
  *generic.DuplicateActivityError.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/hours.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := accounting.NewService(store, store, store, opts)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool with versioned migrations.

SEE ALSO:
  - accounting/ports.go: Interface definitions
  - store/memory: In-memory implementation for testing
  - factory: Schedule JSON format
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// Store implements the accounting collaborators using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.Factory
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, factory: factory.New()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		billing_start_day INTEGER NOT NULL DEFAULT 1,
		billing_end_day INTEGER NOT NULL DEFAULT 31,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		team_id TEXT NOT NULL DEFAULT '',
		company_id TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		schedule_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_team
		ON employees(team_id);

	-- Activities (calendar exceptions)
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		category TEXT NOT NULL,
		hours TEXT,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one activity per employee per day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_activity_day
		ON activities(employee_id, date);

	-- Holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp hours.Employee) error {
	scheduleJSON, err := s.factory.MarshalSchedule(emp.Schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, team_id, company_id, country, region, city, schedule_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			team_id = excluded.team_id,
			company_id = excluded.company_id,
			country = excluded.country,
			region = excluded.region,
			city = excluded.city,
			schedule_json = excluded.schedule_json
	`

	_, err = s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.TeamID, emp.CompanyID,
		emp.Location.Country, emp.Location.Region, emp.Location.City,
		scheduleJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

const employeeColumns = "id, name, team_id, company_id, country, region, city, schedule_json"

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (hours.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return hours.Employee{}, generic.ErrEmployeeNotFound
	}
	return emp, err
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]hours.Employee, error) {
	return s.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
}

// ListTeam returns the members of a team ordered by ID.
func (s *Store) ListTeam(ctx context.Context, teamID string) ([]hours.Employee, error) {
	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE team_id = ? ORDER BY id", teamID)
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]hours.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []hours.Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEmployee(row scanner) (hours.Employee, error) {
	var emp hours.Employee
	var scheduleJSON string
	err := row.Scan(&emp.ID, &emp.Name, &emp.TeamID, &emp.CompanyID,
		&emp.Location.Country, &emp.Location.Region, &emp.Location.City, &scheduleJSON)
	if err != nil {
		return hours.Employee{}, err
	}
	emp.Schedule, err = s.factory.ParseSchedule(scheduleJSON)
	if err != nil {
		return hours.Employee{}, fmt.Errorf("employee %s: stored schedule: %w", emp.ID, err)
	}
	return emp, nil
}

// =============================================================================
// COMPANY STORE
// =============================================================================

// SaveCompany inserts or updates a company.
func (s *Store) SaveCompany(ctx context.Context, c hours.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO companies (id, name, billing_start_day, billing_end_day, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			billing_start_day = excluded.billing_start_day,
			billing_end_day = excluded.billing_end_day
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Billing.StartDay, c.Billing.EndDay,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetCompany retrieves a company by ID.
func (s *Store) GetCompany(ctx context.Context, id string) (hours.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c hours.Company
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, billing_start_day, billing_end_day FROM companies WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Billing.StartDay, &c.Billing.EndDay)
	if errors.Is(err, sql.ErrNoRows) {
		return hours.Company{}, generic.ErrCompanyNotFound
	}
	return c, err
}

// ListCompanies returns every company ordered by ID.
func (s *Store) ListCompanies(ctx context.Context) ([]hours.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, billing_start_day, billing_end_day FROM companies ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hours.Company
	for rows.Next() {
		var c hours.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Billing.StartDay, &c.Billing.EndDay); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// ACTIVITY STORE
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveActivity records one activity.
func (s *Store) SaveActivity(ctx context.Context, a hours.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertActivity(ctx, s.db, a)
}

// ImportActivities records a batch in one transaction: either every
// activity is stored or none is.
func (s *Store) ImportActivities(ctx context.Context, batch []hours.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range batch {
		if err := s.insertActivity(ctx, tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) insertActivity(ctx context.Context, db execer, a hours.Activity) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees WHERE id = ?", a.EmployeeID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrEmployeeNotFound
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var h sql.NullString
	if a.Hours != nil {
		h = sql.NullString{String: a.Hours.String(), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO activities (id, employee_id, date, category, hours, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, a.Date.String(), string(a.Category), h, nullString(a.Note),
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return &generic.DuplicateActivityError{EmployeeID: a.EmployeeID, Date: a.Date}
	}
	return err
}

// ActivitiesInRange returns an employee's activities within period, in
// date order.
func (s *Store) ActivitiesInRange(ctx context.Context, employeeID string, period generic.Period) ([]hours.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, category, hours, note
		FROM activities
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		employeeID, period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []hours.Activity
	for rows.Next() {
		var a hours.Activity
		var dateStr, category string
		var h, note sql.NullString
		if err := rows.Scan(&a.ID, &a.EmployeeID, &dateStr, &category, &h, &note); err != nil {
			return nil, err
		}
		if a.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		a.Category = hours.Category(category)
		a.Note = note.String
		if h.Valid {
			v, err := decimal.NewFromString(h.String)
			if err != nil {
				return nil, fmt.Errorf("activity %s: hours: %w", a.ID, err)
			}
			a.Hours = &v
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// SaveHoliday inserts or updates a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, country, region, city, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			country = excluded.country,
			region = excluded.region,
			city = excluded.city,
			recurring = excluded.recurring
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Date.String(), h.Name,
		h.Scope.Country, h.Scope.Region, h.Scope.City,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// HolidaysInRange returns the holidays that apply to loc and may occur in
// period. Recurring holidays are returned whatever their stored year.
func (s *Store) HolidaysInRange(ctx context.Context, loc generic.Location, period generic.Period) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, country, region, city, recurring
		FROM holidays
		WHERE (country = '' OR country = ? COLLATE NOCASE)
		  AND (recurring = TRUE OR (date >= ? AND date <= ?))
		ORDER BY date ASC`,
		loc.Country, period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name,
			&h.Scope.Country, &h.Scope.Region, &h.Scope.City, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		// Region and city scoping is finer than the query.
		if h.AppliesTo(loc) {
			holidays = append(holidays, h)
		}
	}
	return holidays, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset clears all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"activities", "holidays", "employees", "companies"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique
}
