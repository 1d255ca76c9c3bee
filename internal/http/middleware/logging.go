// Package middleware holds the Gin middleware chain of the signup gate.
//
// Correlation and panic handling live here. Install RequestID first so the
// access log, recovered panics and error bodies all share one request ID.
package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDHeader = "X-Request-ID"

	requestIDKey = "requestID"
	loggerKey    = "logger"

	maxQueryLogLength = 2048
)

// RequestID echoes the caller's X-Request-ID, or a fresh UUID, on the
// response and in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the ID stored by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerFrom returns the request-scoped logger installed by RedactingLogger,
// falling back to the global logger.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok && lg != nil {
		return lg
	}
	l := log.Logger
	return &l
}

// attachLogger makes l reachable from both the Gin context and
// c.Request.Context(), where services pick it up via zerolog.Ctx.
func attachLogger(c *gin.Context, l *zerolog.Logger) {
	c.Set(loggerKey, l)
	if c.Request != nil {
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	}
}

// Recovery turns a panic into a 500 with the standard error body. gin's own
// panic output is discarded; the stack goes to the request logger instead.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		rid := RequestIDFrom(c)
		LoggerFrom(c).Error().
			Interface("panic", rec).
			Bytes("stack", debug.Stack()).
			Str("request_id", rid).
			Msg("panic recovered")

		if c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Header(requestIDHeader, rid)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"request_id": rid,
			"code":       "internal_error",
			"message":    "internal server error",
		})
	})
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate shortens s to max bytes plus an ellipsis; max <= 0 keeps s whole.
func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max] + "…"
	}
	return s
}
