/*
handlers_test.go - HTTP tests for the API handlers

Requests go through the full router (middleware included) against an
in-memory store. Today is fixed at March 15 2025.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/store/memory"
)

var testToday = generic.NewDate(2025, time.March, 15)

type testServer struct {
	router http.Handler
	store  *memory.Memory
	closes *BillingCloseScheduler
	logs   *observer.ObservedLogs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	store := memory.New()
	today := func() generic.Date { return testToday }
	svc, err := accounting.NewService(store, store, store, accounting.Options{Today: today, Logger: zap.NewNop()})
	require.NoError(t, err)

	h := NewHandler(svc, store, logger)
	h.today = today
	h.Closes = NewBillingCloseScheduler(store, svc, zap.NewNop())
	h.Closes.Today = today

	return &testServer{router: NewRouter(h, RouterOptions{}), store: store, closes: h.Closes, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func employeeBody(id, team, company string) map[string]any {
	return map[string]any{
		"id":         id,
		"name":       "Employee " + id,
		"team_id":    team,
		"company_id": company,
		"location":   map[string]string{"country": "ES", "region": "MD"},
		"schedule": map[string]any{
			"weekday_hours":        8,
			"friday_hours":         8,
			"annual_vacation_days": 22,
			"annual_flex_hours":    40,
		},
	}
}

// seed creates company acme (26-25) with two employees in team-a.
func (s *testServer) seed(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/companies", map[string]any{
		"id": "acme", "name": "Acme", "billing": map[string]int{"start_day": 26, "end_day": 25},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, id := range []string{"emp-1", "emp-2"} {
		rec := s.do(t, http.MethodPost, "/api/employees", employeeBody(id, "team-a", "acme"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

// =============================================================================
// EMPLOYEES AND SUMMARIES
// =============================================================================

func TestCreateEmployee_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	emp := decode[EmployeeDTO](t, rec)
	assert.Equal(t, "team-a", emp.TeamID)
	assert.Equal(t, "MD", emp.Location.Region)
	assert.Equal(t, 8.0, emp.Schedule.WeekdayHours)
	assert.Equal(t, 22, emp.Schedule.AnnualVacationDays)

	list := decode[[]EmployeeDTO](t, s.do(t, http.MethodGet, "/api/employees", nil))
	assert.Len(t, list, 2)
}

func TestCreateEmployee_InvalidSchedule(t *testing.T) {
	s := newTestServer(t)

	body := employeeBody("emp-1", "", "")
	body["schedule"] = map[string]any{"weekday_hours": -1, "friday_hours": 8}
	rec := s.do(t, http.MethodPost, "/api/employees", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid schedule", decode[ErrorResponse](t, rec).Error)
}

func TestGetSummary_WithVacation(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	// GIVEN: one vacation day in March
	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/activities", map[string]any{
		"date": "2025-03-03", "category": "vacation",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: March is summarized
	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/summary?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: 21 weekdays scheduled, one of them on vacation
	summary := decode[SummaryDTO](t, rec)
	assert.Equal(t, "2025-03", summary.Period)
	assert.Equal(t, 168.0, summary.TheoreticalHours)
	assert.Equal(t, 160.0, summary.ActualHours)
	assert.Equal(t, 95.24, summary.Efficiency)
	assert.Equal(t, 1, summary.VacationDays)
}

func TestGetSummary_Errors(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown employee", "/api/employees/ghost/summary?year=2025&month=3", http.StatusNotFound},
		{"month out of range", "/api/employees/emp-1/summary?year=2025&month=13", http.StatusBadRequest},
		{"unparseable year", "/api/employees/emp-1/summary?year=abc", http.StatusBadRequest},
		{"unknown team", "/api/teams/ghost/rollup?year=2025&month=3", http.StatusNotFound},
		{"unknown company", "/api/companies/ghost/billing?year=2025&month=3", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestGetMonthsAndProjection(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	months := decode[[]SummaryDTO](t, s.do(t, http.MethodGet, "/api/employees/emp-1/months?year=2025", nil))
	require.Len(t, months, 12)
	assert.Equal(t, "2025-01", months[0].Period)

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/projection?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proj := decode[ProjectionDTO](t, rec)
	require.Len(t, proj.Months, 12)
	assert.False(t, proj.Months[2].Projected)
	assert.True(t, proj.Months[3].Projected)
	assert.Equal(t, 9, proj.ProjectedMonths)
}

func TestGetBenefits(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	hours := 3.0
	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/activities", map[string]any{
		"date": "2025-02-04", "category": "flexible_time_off", "hours": hours,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	b := decode[BenefitsDTO](t, s.do(t, http.MethodGet, "/api/employees/emp-1/benefits?year=2025", nil))
	assert.Equal(t, "2025-01-01", b.Start)
	assert.Equal(t, "2025-03-15", b.End)
	assert.Equal(t, 22.0, b.Vacation.Remaining)
	assert.Equal(t, 37.0, b.Flex.Remaining)
	assert.Equal(t, "hours", b.Flex.Unit)
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func TestCreateActivity_Rejects(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	ok := s.do(t, http.MethodPost, "/api/employees/emp-1/activities", map[string]any{"date": "2025-03-03", "category": "absence"})
	require.Equal(t, http.StatusCreated, ok.Code)

	tests := []struct {
		name   string
		path   string
		body   map[string]any
		status int
	}{
		{"duplicate date", "/api/employees/emp-1/activities", map[string]any{"date": "2025-03-03", "category": "vacation"}, http.StatusConflict},
		{"unknown category", "/api/employees/emp-1/activities", map[string]any{"date": "2025-03-04", "category": "nap"}, http.StatusBadRequest},
		{"missing hours", "/api/employees/emp-1/activities", map[string]any{"date": "2025-03-04", "category": "training"}, http.StatusBadRequest},
		{"bad date", "/api/employees/emp-1/activities", map[string]any{"date": "03/04/2025", "category": "vacation"}, http.StatusBadRequest},
		{"unknown employee", "/api/employees/ghost/activities", map[string]any{"date": "2025-03-04", "category": "vacation"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestImportActivities_AllOrNothing(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	// GIVEN: a batch whose second entry repeats the first date
	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/activities/batch", map[string]any{
		"activities": []map[string]any{
			{"date": "2025-03-03", "category": "vacation"},
			{"date": "2025-03-03", "category": "absence"},
		},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// THEN: nothing was stored
	acts := decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/employees/emp-1/activities?year=2025&month=3", nil))
	assert.Empty(t, acts)

	// WHEN: a valid batch is sent
	rec = s.do(t, http.MethodPost, "/api/employees/emp-1/activities/batch", map[string]any{
		"activities": []map[string]any{
			{"date": "2025-03-03", "category": "vacation"},
			{"date": "2025-03-04", "category": "training", "hours": 2},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[ImportActivitiesResponse](t, rec).Imported)

	acts = decode[[]map[string]any](t, s.do(t, http.MethodGet, "/api/employees/emp-1/activities?year=2025&month=3", nil))
	assert.Len(t, acts, 2)
}

// =============================================================================
// HOLIDAYS, BILLING, ROLLUPS
// =============================================================================

func TestHolidays_AffectSummary(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/holidays", map[string]any{
		"date": "2025-03-07", "name": "Local", "scope": map[string]string{"country": "ES", "region": "MD"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/holidays", map[string]any{"date": "2025-03-07"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hols := decode[[]HolidayDTO](t, s.do(t, http.MethodGet, "/api/holidays?year=2025&country=ES&region=MD", nil))
	require.Len(t, hols, 1)
	assert.Equal(t, "2025-03-07", hols[0].Date)

	// Outside Spain the holiday is not observed
	hols = decode[[]HolidayDTO](t, s.do(t, http.MethodGet, "/api/holidays?year=2025&country=FR", nil))
	assert.Empty(t, hols)

	summary := decode[SummaryDTO](t, s.do(t, http.MethodGet, "/api/employees/emp-1/summary?year=2025&month=3", nil))
	assert.Equal(t, 160.0, summary.TheoreticalHours)
	assert.Equal(t, 1, summary.HolidayDays)
}

func TestBilling(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/billing?year=2025&month=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[BillingDTO](t, rec)
	assert.Equal(t, "2025-01-26", b.Summary.Start)
	assert.Equal(t, "2025-02-25", b.Summary.End)
	assert.Equal(t, "high", b.Tier)

	company := decode[CompanyBillingDTO](t, s.do(t, http.MethodGet, "/api/companies/acme/billing?year=2025&month=2", nil))
	assert.Len(t, company.Employees, 2)
	assert.Equal(t, 2, company.Summary.Members)

	rec = s.do(t, http.MethodPost, "/api/companies", map[string]any{
		"id": "bad", "billing": map[string]int{"start_day": 40, "end_day": 25},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRollups(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	// GIVEN: emp-2 absent for two days in March
	for _, d := range []string{"2025-03-03", "2025-03-04"} {
		rec := s.do(t, http.MethodPost, "/api/employees/emp-2/activities", map[string]any{"date": d, "category": "absence"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// WHEN: team-a is rolled up
	rec := s.do(t, http.MethodGet, "/api/teams/team-a/rollup?year=2025&month=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	team := decode[TeamRollupDTO](t, rec)

	// THEN: (168 + 152) / 336
	assert.Equal(t, 2, team.Summary.Members)
	assert.Equal(t, 95.24, team.Summary.Efficiency)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "emp-1", team.Members[0].EmployeeID)
	assert.Equal(t, "high", team.Members[0].Tier)
	assert.Equal(t, "acceptable", team.Members[1].Tier)

	org := decode[OrganizationRollupDTO](t, s.do(t, http.MethodGet, "/api/organization/rollup?year=2025&month=3", nil))
	require.Len(t, org.Teams, 1)
	assert.Equal(t, "team-a", org.Teams[0].TeamID)
}

func TestBillingCloses(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	// WHEN: closing on March 15 with a 26-25 window
	rec := s.do(t, http.MethodPost, "/api/billing/closes/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["closed"])

	// THEN: the February window is recorded once
	assert.Equal(t, 0, s.closes.RunNow(context.Background()))
	runs := decode[[]BillingCloseDTO](t, s.do(t, http.MethodGet, "/api/billing/closes", nil))
	require.Len(t, runs, 1)
	assert.Equal(t, "acme", runs[0].CompanyID)
	assert.Equal(t, "2025-02", runs[0].Period)
	assert.Equal(t, "2025-02-25", runs[0].End)
	assert.Equal(t, 2, runs[0].Employees)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestRequestLogger_Levels(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodGet, "/api/health", nil)
	s.do(t, http.MethodGet, "/api/employees/ghost", nil)

	entries := s.logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
	assert.NotEmpty(t, entries[1].ContextMap()["request_id"])
}
