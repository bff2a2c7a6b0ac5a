package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/handler"
)

// RegisterPublic registers the unauthenticated tap flow. A physical tap has
// no login step, so none of these routes carry JWT, role or rate-limit
// middleware.
func RegisterPublic(e *echo.Echo, t *handler.TapHandler, log *zap.Logger) {
	e.POST("/api/tap-event", t.RecordTap)
	e.GET("/api/public/tag-info/:tagId", t.TagInfo)
	e.POST("/api/client-log", handler.ClientLog(log))
}
