/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the console frontend

SECURITY NOTE:
  No authentication middleware. Session handling belongs to the hosting
  backend; this service only exposes the rule engine.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Driver routes
		r.Route("/drivers", func(r chi.Router) {
			r.Get("/", h.ListDrivers)
			r.Post("/", h.CreateDriver)
			r.Get("/{id}", h.GetDriver)
			r.Get("/{id}/trips", h.ListDriverTrips)
			r.Get("/{id}/trips/reportable", h.ReportableTrips)
			r.Get("/{id}/leave/quota", h.LeaveQuota)
			r.Get("/{id}/leave/requests", h.ListLeaveRequests)
			r.Post("/{id}/leave/requests", h.SubmitLeaveRequest)
			r.Post("/{id}/incidents", h.SubmitIncident)
		})

		// Trip routes
		r.Route("/trips", func(r chi.Router) {
			r.Post("/", h.CreateTrip)
			r.Post("/{id}/transition", h.TransitionTrip)
			r.Get("/{id}/expenses", h.ListTripExpenses)
			r.Post("/{id}/expenses", h.SubmitExpense)
		})

		// Leave approval routes
		r.Route("/leave-requests", func(r chi.Router) {
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Demo data
		r.Post("/seed", h.SeedDemo)
	})

	return r
}
