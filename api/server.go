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
  /api/auth/login       Public, rate-limited
  /api/users/*          Account management (mixed self/admin)
  /api/reservations/*   Booking and cancellation
  /api/parking-slots    Availability grid
  /api/penalties/*      Booking cost preview
  /api/analytics        Admin aggregates
  /api/settings         Admin penalty parameters

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: RequireAuth / RequireAdmin middleware
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
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(h.RateLimitLogin)
			r.Post("/auth/login", h.Login)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.With(h.RequireAdmin).Get("/", h.ListUsers)
				r.With(h.RequireAdmin).Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.With(h.RequireAdmin).Delete("/{id}", h.DeleteUser)
				r.Put("/{id}/password", h.ChangePassword)
				r.With(h.RequireAdmin).Put("/{id}/suspend", h.SetSuspended)
				r.Get("/{id}/penalties", h.ListUserPenalties)
			})

			r.Route("/reservations", func(r chi.Router) {
				r.Get("/", h.ListReservations)
				r.Post("/", h.CreateReservation)
				r.Get("/{id}", h.GetReservation)
				r.Post("/{id}/cancel", h.CancelReservation)
			})

			r.Get("/parking-slots", h.GetSlotGrid)
			r.Get("/penalties/preview", h.PreviewPenalty)

			r.With(h.RequireAdmin).Get("/analytics", h.GetAnalytics)
			r.Route("/settings", func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Get("/", h.GetSettings)
				r.Put("/", h.UpdateSettings)
			})
		})
	})

	return r
}
