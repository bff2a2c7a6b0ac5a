package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nfc-tracker/internal/handler"
	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/model"
)

// TenantHandlers groups the handlers served to any logged-in user of a
// tenant.
type TenantHandlers struct {
	Tags    *handler.TagHandler
	Taps    *handler.TapHandler
	Tenants *handler.TenantHandler
}

// RegisterTenant registers the tenant-scoped dashboard API under /api. The
// cache middleware only wraps GET /api/empresa; its key includes the
// tenant id, so it has to run after JWTAuth.
func RegisterTenant(e *echo.Echo, h TenantHandlers, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/api",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin),
	)

	g.GET("/empresa", h.Tenants.Get, cache)

	// ---- Tags ----
	g.GET("/nfc-tags", h.Tags.ListTags)
	g.POST("/nfc-tags", h.Tags.CreateTag)
	g.DELETE("/nfc-tags/:id", h.Tags.DeleteTag)

	// ---- Taps ----
	g.GET("/nfc-taps", h.Taps.ListTaps)
}

// RegisterAdmin registers user administration, restricted to super admins.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSuperAdmin),
	)
	g.GET("/users", a.ListUsers)
	g.POST("/register", a.Register)
	g.DELETE("/users/:id", a.DeleteUser)
}
