package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.MaintenanceRequestsHandler
	Teams          *handlers.TeamMembersHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *ratelimit.Limiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	throttle := rateLimitMiddleware(cfg.RateLimiter, cfg.Metrics)
	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	requests := api.Group("/maintenance/requests")
	requests.Post("", throttle, cfg.Requests.Create)
	requests.Get("", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Patch("/:id", throttle, cfg.Requests.Update)
	requests.Patch("/:id/assign", throttle, cfg.Requests.Assign)

	api.Get("/users/:userId/teams", cfg.Teams.ListForUser)

	teams := api.Group("/teams", auth.RequireRole(domain.RoleAdmin))
	teams.Put("/:teamId/members/:userId", throttle, cfg.Teams.Add)
	teams.Delete("/:teamId/members/:userId", throttle, cfg.Teams.Remove)
}
