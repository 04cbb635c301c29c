package handler

import (
	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/handler/middleware"
	"github.com/gofiber/fiber/v2"
)

// Routes bundles the handlers and middleware mounted by SetupRoutes.
type Routes struct {
	Auth     *AuthHandler
	Password *PasswordHandler
	Session  *SessionHandler
	Role     *RoleHandler
	Health   *HealthHandler
	Metrics  fiber.Handler

	Authenticate fiber.Handler
	OptionalAuth fiber.Handler
	RateLimit    fiber.Handler
	Authorizer   *middleware.Authorizer
}

func SetupRoutes(app *fiber.App, r Routes) {
	// Health and metrics (public)
	app.Get("/health", r.Health.Health)
	if r.Metrics != nil {
		app.Get("/metrics", r.Metrics)
	}

	api := app.Group("/api/v1")

	protected := func(handlers ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{r.Authenticate, r.RateLimit}, handlers...)
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", r.Auth.Register)
	auth.Post("/login", r.Auth.Login)
	auth.Post("/logout", protected(r.Auth.Logout)...)
	auth.Post("/refresh", protected(r.Auth.Refresh)...)
	auth.Get("/me", protected(r.Auth.Me)...)
	auth.Put("/profile", protected(r.Auth.UpdateProfile)...)
	auth.Post("/change-password", protected(r.Password.ChangePassword)...)
	auth.Get("/sessions", protected(r.Session.List)...)
	auth.Delete("/sessions/:id", protected(r.Session.Revoke)...)

	// The role catalogue is public; signed-in callers are still rate limited.
	api.Get("/roles", r.OptionalAuth, r.RateLimit, r.Role.ListRoles)

	// Any member of the club, including inactive ones, may read their own membership.
	api.Get("/clubs/:clubId/membership", protected(
		r.Authorizer.RequireRoleCategory(domain.AllCategories, middleware.AllowInactive()),
		r.Role.Membership,
	)...)
	api.Get("/clubs/:clubId/management", protected(
		r.Authorizer.RequireRole([]string{domain.RolePresident, domain.RoleManager}),
		r.Role.Membership,
	)...)
	api.Get("/clubs/:clubId/ownership", protected(
		r.Authorizer.RequireClubOwnership(),
		r.Role.Membership,
	)...)
	api.Get("/clubs/:clubId/permissions/:permission", protected(
		func(c *fiber.Ctx) error {
			return r.Authorizer.RequirePermission(c.Params("permission"))(c)
		},
		r.Role.Permission,
	)...)

	app.Use(NotFound)
}
