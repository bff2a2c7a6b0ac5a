package router // package router wires middleware and routes onto the Echo instance

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/handler"
	"github.com/iliyamo/nfc-tracker/internal/middleware"
)

// Setup installs the process-wide middleware chain and the request
// validator. It must run before any Register* call.
func Setup(e *echo.Echo, cfg config.Config, log *zap.Logger) {
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	// Recover first so a panicking handler still gets a request id and a log line.
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	// The tap page is served from the frontend origin, so every /api route needs CORS.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// against the database, and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the login endpoint behind the rate limiter.
// Login is the only credential-checking route, so it is the only one
// limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/login", a.Login, limiter)
}
