/*
handlers.go - HTTP API handlers for the hours engine

PURPOSE:
  Exposes the accounting service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the service.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List employees
    POST   /api/employees                      Create or replace an employee
    GET    /api/employees/{id}                 Employee record
    GET    /api/employees/{id}/summary         ?year=&month= (month 0 or absent: whole year)
    GET    /api/employees/{id}/months          ?year= monthly breakdown
    GET    /api/employees/{id}/benefits        ?year= remaining vacation and flex
    GET    /api/employees/{id}/billing         ?year=&month= company billing window
    GET    /api/employees/{id}/projection      ?year=
    GET    /api/employees/{id}/activities      ?year=&month=
    POST   /api/employees/{id}/activities      Record one activity
    POST   /api/employees/{id}/activities/batch Record many, all or nothing

  Companies:
    GET    /api/companies                      List companies
    POST   /api/companies                      Create or replace a company
    GET    /api/companies/{id}/billing         ?year=&month=

  Holidays:
    GET    /api/holidays                       ?year=&country=&region=&city=
    POST   /api/holidays                       Create or replace a holiday

  Rollups:
    GET    /api/teams/{id}/rollup              ?year=&month=
    GET    /api/organization/rollup            ?year=&month=

  Billing close:
    GET    /api/billing/closes                 Recorded closes
    POST   /api/billing/closes/run             Close ended windows now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation or configuration errors, invalid input
  - 404: Employee, company or team not found
  - 409: Duplicate activity for an employee and date
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/factory"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *accounting.Service
	Store   accounting.Repository
	Factory *factory.Factory

	// Optional; nil disables the /api/billing/closes routes
	Closes *BillingCloseScheduler

	today  func() generic.Date
	logger *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *accounting.Service, store accounting.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service: svc,
		Store:   store,
		Factory: factory.New(),
		today:   generic.Today,
		logger:  logger,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = h.toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "ID is required", nil)
		return
	}
	schedule, err := h.Factory.ScheduleFromJSON(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}

	emp := hours.Employee{
		ID:        req.ID,
		Name:      req.Name,
		TeamID:    req.TeamID,
		CompanyID: req.CompanyID,
		Location:  req.Location.location(),
		Schedule:  schedule,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toEmployeeDTO(emp))
}

// GetSummary summarizes a month, or the whole year without month.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, false)
	if !ok {
		return
	}
	summary, err := h.Service.EmployeeSummary(r.Context(), chi.URLParam(r, "id"), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToSummaryDTO(summary))
}

// GetMonths returns the twelve monthly summaries of a year.
func (h *Handler) GetMonths(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	months, err := h.Service.EmployeeMonths(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]SummaryDTO, len(months))
	for i, m := range months {
		dtos[i] = ToSummaryDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBenefits returns remaining vacation and flexible time.
func (h *Handler) GetBenefits(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	benefits, err := h.Service.EmployeeBenefits(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToBenefitsDTO(benefits))
}

// GetBilling summarizes the employee's company billing window.
func (h *Handler) GetBilling(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, true)
	if !ok {
		return
	}
	report, err := h.Service.EmployeeBilling(r.Context(), chi.URLParam(r, "id"), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToBillingDTO(report))
}

// GetProjection projects the employee's year.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	forecast, err := h.Service.EmployeeProjection(r.Context(), chi.URLParam(r, "id"), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToProjectionDTO(forecast))
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// ListActivities returns the employee's activities for a month or year.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, false)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	period := generic.YearPeriod(year)
	switch {
	case month < 0 || month > 12:
		writeError(w, http.StatusBadRequest, "Invalid month", fmt.Errorf("month=%d", month))
		return
	case month != 0:
		period = generic.MonthPeriod(year, time.Month(month))
	}
	acts, err := h.Store.ActivitiesInRange(r.Context(), id, period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]factory.ActivityJSON, len(acts))
	for i, a := range acts {
		dtos[i] = h.Factory.ActivityToJSON(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateActivity records one activity for the employee in the path.
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req factory.ActivityJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.EmployeeID = chi.URLParam(r, "id")

	activity, err := h.Factory.ActivityFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity", err)
		return
	}
	if err := h.Store.SaveActivity(r.Context(), activity); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Factory.ActivityToJSON(activity))
}

// ImportActivities records a batch for the employee in the path. Either
// every activity is stored or none is.
func (h *Handler) ImportActivities(w http.ResponseWriter, r *http.Request) {
	var req ImportActivitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id := chi.URLParam(r, "id")

	batch := make([]hours.Activity, 0, len(req.Activities))
	for i, aj := range req.Activities {
		aj.EmployeeID = id
		a, err := h.Factory.ActivityFromJSON(aj)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid activity at index %d", i), err)
			return
		}
		batch = append(batch, a)
	}
	if err := h.Store.ImportActivities(r.Context(), batch); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ImportActivitiesResponse{Imported: len(batch)})
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

// ListCompanies returns all companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Store.ListCompanies(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]CompanyDTO, len(companies))
	for i, c := range companies {
		dtos[i] = toCompanyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCompany creates or replaces a company.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "ID is required", nil)
		return
	}
	billing, err := h.Factory.BillingFromJSON(req.Billing)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid billing window", err)
		return
	}

	company := hours.Company{ID: req.ID, Name: req.Name, Billing: billing}
	if err := h.Store.SaveCompany(r.Context(), company); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyDTO(company))
}

// GetCompanyBilling bills every employee of a company.
func (h *Handler) GetCompanyBilling(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, true)
	if !ok {
		return
	}
	report, err := h.Service.CompanyBilling(r.Context(), chi.URLParam(r, "id"), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToCompanyBillingDTO(report))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the holidays observed at a location in a year.
// Without a country only global holidays are listed.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.year(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	loc := generic.Location{Country: q.Get("country"), Region: q.Get("region"), City: q.Get("city")}
	period := generic.YearPeriod(year)

	hols, err := h.Store.HolidaysInRange(r.Context(), loc, period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	set := generic.NewHolidaySet(hols, loc, period)

	dtos := make([]HolidayDTO, 0, set.Len())
	period.ForEach(func(d generic.Date) bool {
		if name, ok := set.Name(d); ok {
			dtos = append(dtos, HolidayDTO{Date: d.String(), Name: name, Scope: toLocationDTO(loc)})
		}
		return true
	})
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates or replaces a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	holiday := generic.Holiday{
		ID:        req.ID,
		Date:      date,
		Name:      req.Name,
		Scope:     req.Scope.location(),
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// =============================================================================
// ROLLUP HANDLERS
// =============================================================================

// GetTeamRollup rolls up one team.
func (h *Handler) GetTeamRollup(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, false)
	if !ok {
		return
	}
	rollup, err := h.Service.TeamRollup(r.Context(), chi.URLParam(r, "id"), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToTeamRollupDTO(rollup))
}

// GetOrganizationRollup rolls up every team.
func (h *Handler) GetOrganizationRollup(w http.ResponseWriter, r *http.Request) {
	year, month, ok := h.yearMonth(w, r, false)
	if !ok {
		return
	}
	org, err := h.Service.OrganizationRollup(r.Context(), year, month)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ToOrganizationRollupDTO(org))
}

// =============================================================================
// BILLING CLOSE HANDLERS
// =============================================================================

// ListBillingCloses returns the recorded closes, newest first.
func (h *Handler) ListBillingCloses(w http.ResponseWriter, r *http.Request) {
	runs := h.Closes.Runs()
	dtos := make([]BillingCloseDTO, len(runs))
	for i, run := range runs {
		dtos[i] = BillingCloseDTO{
			CompanyID:  run.CompanyID,
			Period:     hours.PeriodID{Kind: hours.PeriodMonth, Year: run.Year, Month: run.Month}.String(),
			Start:      run.Period.Start.String(),
			End:        run.Period.End.String(),
			Employees:  run.Employees,
			Efficiency: num(run.Summary.Efficiency),
			Tier:       string(run.Summary.Tier),
			ClosedAt:   run.ClosedAt,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunBillingClose closes every ended window now.
func (h *Handler) RunBillingClose(w http.ResponseWriter, r *http.Request) {
	closed := h.Closes.RunNow(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"closed":   closed,
		"next_run": h.Closes.NextRunTime(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) toEmployeeDTO(e hours.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		Name:      e.Name,
		TeamID:    e.TeamID,
		CompanyID: e.CompanyID,
		Location:  toLocationDTO(e.Location),
		Schedule:  h.Factory.ScheduleToJSON(e.Schedule),
	}
}

// year reads ?year=, defaulting to the current year.
func (h *Handler) year(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.today().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", fmt.Errorf("year=%q", raw))
		return 0, false
	}
	return year, true
}

// yearMonth reads ?year=&month=. Without month the result is 0 (whole
// year) unless required, in which case the current month is used.
func (h *Handler) yearMonth(w http.ResponseWriter, r *http.Request, required bool) (int, int, bool) {
	year, ok := h.year(w, r)
	if !ok {
		return 0, 0, false
	}
	raw := r.URL.Query().Get("month")
	if raw == "" {
		if required {
			return year, int(h.today().Month()), true
		}
		return year, 0, true
	}
	month, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", fmt.Errorf("month=%q", raw))
		return 0, 0, false
	}
	return year, month, true
}

// writeServiceError maps engine and store errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, notFoundMessage(err), err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Activity already recorded for that date", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, generic.ErrEmployeeNotFound):
		return "Employee not found"
	case errors.Is(err, generic.ErrCompanyNotFound):
		return "Company not found"
	default:
		return "Team not found"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
