package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	maxRequestIDLen = 64
)

// RequestID propagates a caller supplied id when it looks sane and mints one
// otherwise. The id ends up in logs and error envelopes.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(CtxRequestID, id)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if ch := id[i]; ch < 0x21 || ch > 0x7e {
			return false
		}
	}
	return true
}

// RequestLogger writes one line per request. Server errors log at error and
// client errors at warn so failed sign-ins stand out without a query.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.String("request_id", c.GetString(CtxRequestID)),
			slog.String("client_ip", c.ClientIP()),
		}

		if id, ok := IdentityFromContext(c); ok {
			attrs = append(attrs, slog.Int64("user_id", id.UserID))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		log.LogAttrs(c.Request.Context(), level, "http_request", attrs...)
	}
}
