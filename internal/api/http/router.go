package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouterDependencies bundles everything route registration needs.
type RouterDependencies struct {
	AuthMiddleware *auth.AuthMiddleware
	Auth           *handlers.AuthHandler
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketHandler
	Board          *handlers.BoardHandler
	Comments       *handlers.CommentHandler
	Feedback       *handlers.FeedbackHandler
	Dashboard      *handlers.DashboardHandler
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// RegisterRoutes wires middleware and all API routes onto the app.
func RegisterRoutes(app *fiber.App, deps RouterDependencies) {
	app.Use(Recover(deps.Logger))
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))
	app.Use(Timeout(deps.RequestTimeout))

	app.Get("/health/live", deps.Health.Live)
	app.Get("/health/ready", deps.Health.Ready)

	api := app.Group("/api/v1")
	api.Post("/auth/login", deps.Auth.Login)

	protected := api.Use(deps.AuthMiddleware.Handle)

	staffOnly := auth.RequireRoles(domain.RoleAdmin, domain.RoleSupport)
	adminOnly := auth.RequireRoles(domain.RoleAdmin)
	userOnly := auth.RequireRoles(domain.RoleUser)

	protected.Post("/tickets", userOnly, deps.Tickets.Create)
	protected.Get("/tickets", deps.Tickets.List)
	protected.Get("/tickets/:id", deps.Tickets.Get)
	protected.Put("/tickets/:id", deps.Tickets.Update)
	protected.Post("/tickets/:id/reopen", deps.Tickets.Reopen)
	protected.Post("/tickets/:id/close", staffOnly, deps.Tickets.Close)

	protected.Post("/board/tickets/:id/move", staffOnly, deps.Board.Move)

	protected.Get("/tickets/:id/comments", deps.Comments.List)
	protected.Post("/tickets/:id/comments", deps.Comments.Create)
	protected.Delete("/comments/:commentId", deps.Comments.Delete)

	protected.Get("/tickets/:id/feedback", deps.Feedback.Get)
	protected.Post("/tickets/:id/feedback", userOnly, deps.Feedback.Submit)
	protected.Post("/tickets/:id/close-with-feedback", userOnly, deps.Feedback.CloseWithFeedback)

	protected.Get("/dashboard", deps.Dashboard.Get)
	protected.Get("/support-members", adminOnly, deps.Tickets.SupportMembers)
	protected.Get("/support-members/:id/stats", adminOnly, deps.Dashboard.SupportMemberStats)
}
