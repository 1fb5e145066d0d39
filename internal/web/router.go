package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/subhive-systems/subhive/internal/auth"
	"github.com/subhive-systems/subhive/internal/ratelimit"
	"github.com/subhive-systems/subhive/internal/web/handlers"
	"github.com/subhive-systems/subhive/internal/web/middleware"
)

// RouterDeps holds all dependencies needed to build the router.
type RouterDeps struct {
	WebhookHandler *handlers.WebhookHandler
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	InboxHandler   *handlers.InboxHandler
	PlanHandler    *handlers.PlanHandler
	AccountHandler *handlers.AccountHandler
	AuthService    *auth.Service
	Limiter        *ratelimit.Limiter
}

// NewRouter wires all routes into a Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RealIP)

	// Public webhook (CORS, rate limited). The handler answers OPTIONS
	// preflights and rejects unsupported methods itself, so it is mounted
	// for every method.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS)
		r.Use(middleware.RateLimit(deps.Limiter))

		r.HandleFunc("/api/webhook/email", deps.WebhookHandler.HandleInboundEmail)
	})

	// Public auth routes (rate limited)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter))

		r.Post("/api/auth/login", deps.AuthHandler.Login)
	})

	// Authenticated admin API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.AuthService))

		r.Post("/auth/logout", deps.AuthHandler.Logout)
		r.Get("/me", deps.AuthHandler.Me)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", deps.UserHandler.Create)
			r.Get("/", deps.UserHandler.List)

			r.Route("/{userID}", func(r chi.Router) {
				r.Get("/", deps.UserHandler.Get)
				r.Put("/", deps.UserHandler.Update)
				r.Delete("/", deps.UserHandler.Delete)
				r.Put("/inbox-settings", deps.UserHandler.UpdateInboxSettings)

				r.Route("/destinations", func(r chi.Router) {
					r.Get("/", deps.UserHandler.ListDestinations)
					r.Post("/", deps.UserHandler.AddDestination)
					r.Delete("/{destinationID}", deps.UserHandler.RemoveDestination)
				})

				r.Route("/emails", func(r chi.Router) {
					r.Get("/", deps.InboxHandler.ListEmails)
					r.Post("/read-all", deps.InboxHandler.MarkAllRead)
					r.Post("/cleanup", deps.InboxHandler.Cleanup)

					r.Route("/{emailID}", func(r chi.Router) {
						r.Get("/", deps.InboxHandler.GetEmail)
						r.Delete("/", deps.InboxHandler.DeleteEmail)
						r.Post("/read", deps.InboxHandler.MarkRead)
						r.Post("/unread", deps.InboxHandler.MarkUnread)
						r.Post("/star", deps.InboxHandler.Star)
						r.Post("/unstar", deps.InboxHandler.Unstar)
					})
				})
			})
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", deps.PlanHandler.Create)
			r.Get("/", deps.PlanHandler.List)
			r.Get("/{planID}", deps.PlanHandler.Get)
			r.Put("/{planID}", deps.PlanHandler.Update)
			r.Delete("/{planID}", deps.PlanHandler.Delete)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", deps.AccountHandler.Create)
			r.Get("/", deps.AccountHandler.List)
			r.Get("/{accountID}", deps.AccountHandler.Get)
			r.Put("/{accountID}", deps.AccountHandler.Update)
			r.Delete("/{accountID}", deps.AccountHandler.Delete)
			r.Post("/{accountID}/assignments", deps.AccountHandler.Assign)
			r.Delete("/{accountID}/assignments/{userID}", deps.AccountHandler.Unassign)
		})
	})

	return r
}
