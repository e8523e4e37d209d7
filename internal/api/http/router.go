package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Load        *handlers.LoadHandler
	Suggestions *handlers.SuggestionsHandler
}

// RegisterRoutes wires HTTP routes. Static ticket paths register before
// /tickets/:id so they are not captured as ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/stats", cfg.Tickets.Statistics)
	tickets.Put("/stats/trend", cfg.Tickets.SetTrend)
	tickets.Get("/filter", cfg.Tickets.GetFilter)
	tickets.Put("/filter", cfg.Tickets.PutFilter)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assignee", cfg.Tickets.Assign)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
	tickets.Post("/:id/select", cfg.Tickets.Select)

	app.Get("/selection", cfg.Tickets.Selection)
	app.Delete("/selection", cfg.Tickets.CloseDetail)

	load := app.Group("/load")
	load.Get("/", cfg.Load.Status)
	load.Post("/refresh", cfg.Load.Refresh)
	load.Post("/cancel", cfg.Load.Cancel)

	app.Post("/suggestions/apply", cfg.Suggestions.Apply)
}
