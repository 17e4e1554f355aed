/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/fees/*        Fee record generation, listing, summary
  /api/salaries/*    Salary record generation, listing, summary
  /api/attendance/*  Bulk marking and monthly summary
  /api/records/*     Payment transitions and receipts
  /api/students      Student management
  /api/staff         Staff management
  /api/admin/*       Run audit trail
  /api/dashboard     Current-period overview

SECURITY NOTE:
  Tenancy is carried by the X-Tenant-ID header; there is no authentication
  middleware. Front this service with an auth proxy in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Fee routes
		r.Route("/fees", func(r chi.Router) {
			r.Get("/", h.ListFees)
			r.Post("/generate", h.GenerateFees)
			r.Get("/summary", h.FeeSummary)
		})

		// Salary routes
		r.Route("/salaries", func(r chi.Router) {
			r.Get("/", h.ListSalaries)
			r.Post("/generate", h.GenerateSalaries)
			r.Get("/summary", h.SalarySummary)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Post("/mark", h.MarkAttendance)
			r.Get("/summary", h.AttendanceSummary)
		})

		// Record routes (payment lifecycle)
		r.Route("/records", func(r chi.Router) {
			r.Post("/{id}/pay", h.PayRecord)
			r.Get("/{id}/receipt", h.GetReceipt)
		})

		// Entity routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
		})
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/runs", h.ListRuns)
		})

		r.Get("/dashboard", h.Dashboard)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
