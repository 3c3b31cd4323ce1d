/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     Structured request logging (zap)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests
  6. RateLimit:  Per-client token bucket (disabled when limit is 0)

ROUTE GROUPS:
  /api/health             Store health
  /api/categories/*       Capacity catalog
  /api/channels/*         Channel registry
  /api/allocations/*      Allocation ledger
  /api/revenue/*          Revenue facts
  /api/competitor-sets/*  Competitor sets and aggregates
  /api/comparisons/*      Performance indices
  /api/admin/*            Administrative identity

SECURITY NOTE:
  Caller identity is the X-Principal header, trusted as set by the
  authenticating proxy in front of this service.

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

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins  []string
	RateLimitPerMin int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", PrincipalHeader},
		ExposedHeaders: []string{"X-Request-Id"},
	}))
	if opts.RateLimitPerMin > 0 {
		r.Use(newRateLimiter(opts.RateLimitPerMin, h.log).middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.CreateRoomCategory)
			r.Get("/{property}/{category}", h.GetRoomCategory)
			r.Get("/{property}/{category}/availability/{date}", h.CategoryAvailability)
		})

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", h.ListChannels)
			r.Post("/", h.CreateChannel)
			r.Get("/{channel}", h.GetChannel)
			r.Put("/{channel}/status", h.SetChannelStatus)
			r.Put("/{channel}/operator", h.AssignOperator)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Put("/", h.Allocate)
			r.Post("/bookings", h.Book)
			r.Post("/releases", h.ReleaseBooking)
			r.Get("/{property}/{category}/{channel}/{date}", h.GetAllocation)
			r.Get("/{property}/{category}/{channel}/{date}/available", h.GetAvailable)
		})

		r.Route("/revenue", func(r chi.Router) {
			r.Put("/", h.RecordRevenue)
			r.Get("/{property}/{date}", h.GetRevenue)
		})

		r.Route("/competitor-sets", func(r chi.Router) {
			r.Post("/", h.CreateCompetitorSet)
			r.Get("/{set}", h.GetCompetitorSet)
			r.Get("/{set}/members", h.ListMembers)
			r.Put("/{set}/members/{property}", h.AddMember)
			r.Delete("/{set}/members/{property}", h.RemoveMember)
			r.Put("/{set}/aggregates/{date}", h.UpdateCompetitorAggregate)
			r.Get("/{set}/aggregates/{date}", h.GetCompetitorAggregate)
		})

		r.Get("/comparisons/{property}/{set}/{date}", h.ComparePerformance)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/", h.GetAdmin)
			r.Post("/transfer", h.TransferAdmin)
		})
	})

	return r
}
