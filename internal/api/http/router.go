package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/leadflow/internal/api/http/handlers"
	"github.com/spec-kit/leadflow/internal/auth"
	"github.com/spec-kit/leadflow/internal/domain"
	"github.com/spec-kit/leadflow/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Leads          *handlers.LeadsHandler
	Board          *handlers.BoardHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is nil when the endpoint is disabled.
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/me", cfg.Auth.Me)
	protected.Post("/password", cfg.Auth.ChangePassword)

	read := auth.RequirePermission(domain.PermissionLeadsRead)
	write := auth.RequirePermission(domain.PermissionLeadsWrite)

	leads := app.Group("/leads", cfg.AuthMiddleware.Handle)
	leads.Get("/", read, cfg.Leads.List)
	leads.Post("/", write, cfg.Leads.Create)
	leads.Get("/counts", read, cfg.Leads.Counts)
	leads.Post("/import", write, cfg.Leads.Import)
	leads.Get("/:id", read, cfg.Leads.Get)
	leads.Patch("/:id", write, cfg.Leads.Update)
	leads.Delete("/:id", auth.RequirePermission(domain.PermissionLeadsDelete), cfg.Leads.Delete)
	leads.Get("/:id/history", read, cfg.Leads.History)
	leads.Post("/:id/notes", write, cfg.Leads.AddNote)
	leads.Delete("/:id/notes/:noteId", write, cfg.Leads.DeleteNote)
	leads.Post("/:id/followup", write, cfg.Leads.ScheduleFollowup)
	leads.Post("/:id/followup/complete", write, cfg.Leads.CompleteFollowup)
	leads.Post("/:id/claim", write, cfg.Leads.Claim)
	leads.Post("/:id/assign", auth.RequireRole(domain.RoleSalesManager), cfg.Leads.Assign)

	board := app.Group("/board", cfg.AuthMiddleware.Handle)
	board.Get("/", read, cfg.Board.Board)
	board.Get("/columns", read, cfg.Board.Columns)
	board.Post("/move", write, cfg.Board.Move)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequirePermission(domain.PermissionReportsRead))
	reports.Get("/dashboard", cfg.Board.Dashboard)
	reports.Get("/workload", cfg.Board.Workloads)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	users := admin.Group("/users", auth.RequirePermission(domain.PermissionUsersManage))
	users.Get("/", cfg.Admin.ListUsers)
	users.Post("/", cfg.Admin.CreateUser)
	users.Patch("/:id", cfg.Admin.UpdateUser)
	users.Delete("/:id", cfg.Admin.DeleteUser)
	users.Put("/:id/password", cfg.Admin.SetPassword)

	settings := admin.Group("/settings", auth.RequirePermission(domain.PermissionSettingsManage))
	settings.Get("/:section", cfg.Admin.GetSettings)
	settings.Put("/:section", cfg.Admin.PutSettings)
}
