package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"qbank/logging"
)

// RequestLogger writes one structured entry per request. Server errors log
// at error level, client errors at warn.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger).With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		attrs := []any{
			"event_type", "http_request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(c),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "request handled", attrs...)
	}
}
