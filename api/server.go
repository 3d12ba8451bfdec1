/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zap request logging (carries the request ID)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a browser client

ROUTE GROUPS:
  /api/employees/*      Employee records, summaries, activities
  /api/companies/*      Companies and company billing
  /api/holidays         Holiday calendar
  /api/teams/*          Team rollups
  /api/organization/*   Organization rollup
  /api/billing/*        Billing close runs (when a scheduler is attached)
  /api/health           Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logger
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures cross-cutting middleware.
type RouterOptions struct {
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/summary", h.GetSummary)
			r.Get("/{id}/months", h.GetMonths)
			r.Get("/{id}/benefits", h.GetBenefits)
			r.Get("/{id}/billing", h.GetBilling)
			r.Get("/{id}/projection", h.GetProjection)
			r.Get("/{id}/activities", h.ListActivities)
			r.Post("/{id}/activities", h.CreateActivity)
			r.Post("/{id}/activities/batch", h.ImportActivities)
		})

		// Company routes
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Post("/", h.CreateCompany)
			r.Get("/{id}/billing", h.GetCompanyBilling)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		// Rollup routes
		r.Get("/teams/{id}/rollup", h.GetTeamRollup)
		r.Get("/organization/rollup", h.GetOrganizationRollup)

		// Billing close routes
		if h.Closes != nil {
			r.Route("/billing/closes", func(r chi.Router) {
				r.Get("/", h.ListBillingCloses)
				r.Post("/run", h.RunBillingClose)
			})
		}
	})

	return r
}
