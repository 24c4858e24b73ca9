// Package router assembles the HTTP surface of the dispatch console.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatch-console/internal/http/handlers"
	mw "dispatch-console/internal/http/middleware"
	"dispatch-console/internal/http/middleware/ratelimit"
	"dispatch-console/internal/logx"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger    logx.Logger
	Base      *handlers.Handlers
	Orders    *handlers.OrderHandler
	Partners  *handlers.PartnerHandler
	Dispatch  *handlers.DispatchHandler
	Events    *handlers.EventsHandler
	Auth      *mw.Authenticator
	RateLimit *ratelimit.Middleware
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.Observability(d.Logger))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Handler())

		// the SSE stream outlives the request timeout, so it mounts outside
		// the timed group
		r.Get("/events", d.Events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(5 * time.Second))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", d.Orders.Create)
				r.Get("/", d.Orders.List)
				r.Get("/{id}", d.Orders.GetByID)
				r.Post("/{id}/assign", d.Dispatch.Assign)
				r.With(d.RateLimit.Handler()).Post("/{id}/claim", d.Dispatch.Claim)
				r.Post("/{id}/status", d.Dispatch.Advance)
				r.Post("/{id}/cancel", d.Dispatch.Cancel)
				r.Get("/{id}/suggest", d.Dispatch.Suggest)
			})

			r.Get("/feed", d.Dispatch.Feed)

			r.Route("/partners", func(r chi.Router) {
				r.Post("/", d.Partners.Create)
				r.Get("/", d.Partners.List)
				r.Get("/{id}", d.Partners.GetByID)
				r.Patch("/{id}", d.Partners.Update)
				r.Post("/{id}/availability", d.Partners.ToggleAvailability)
			})
		})
	})

	return r
}
