package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sync/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sync/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health             *handlers.HealthHandler
	Tickets            *handlers.TicketsHandler
	Users              *handlers.UsersHandler
	IdentityMiddleware *auth.IdentityMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	protected := app.Group("", cfg.IdentityMiddleware.Handle)
	protected.Get("/me", cfg.Users.Me)
	protected.Get("/dashboard", cfg.Users.Dashboard)

	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Post("/tickets", cfg.Tickets.CreateTicket)

	protected.Get("/profile", cfg.Users.GetProfile)
	protected.Put("/profile", cfg.Users.UpdateProfile)
	protected.Post("/profile/feedback", cfg.Users.SubmitFeedback)
}
