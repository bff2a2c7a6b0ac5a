package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/logger"
	"github.com/iliyamo/nfc-tracker/internal/metrics"
	"github.com/iliyamo/nfc-tracker/internal/model"
)

// maxClientField caps what a browser can push into our logs.
const maxClientField = 4096

// ClientLog handles POST /api/client-log. Tap pages ship their progress
// here; the entry is re-emitted through zap and the answer is always
// 200 so a diagnostics problem never reaches the page.
func ClientLog(log *zap.Logger) echo.HandlerFunc {
	log = log.Named("client")
	return func(c echo.Context) error {
		var entry model.ClientLogEntry
		if err := c.Bind(&entry); err != nil {
			log.Warn("unreadable client log entry", zap.Error(err))
			return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
		}

		level := strings.ToUpper(strings.TrimSpace(entry.Level))
		metrics.RecordClientLog(level)

		fields := []zap.Field{
			zap.String("client_timestamp", clip(entry.Timestamp)),
			zap.String("source_url", clip(entry.SourceURL)),
			zap.String("user_agent", clip(c.Request().UserAgent())),
		}
		if entry.Details != nil {
			fields = append(fields, zap.String("details", clip(*entry.Details)))
		}
		if ce := log.Check(logger.ParseLevel(level), clip(entry.Message)); ce != nil {
			ce.Write(fields...)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "success"})
	}
}

// clip cuts s to at most maxClientField bytes without splitting a rune.
func clip(s string) string {
	if len(s) <= maxClientField {
		return s
	}
	n := maxClientField
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
