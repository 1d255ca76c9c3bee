package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderAdminKey carries the shared admin API key.
	HeaderAdminKey = "X-Admin-Key"
	// HeaderAdminID names the reviewing administrator.
	HeaderAdminID = "X-Admin-ID"

	ctxKeyAdminID = "admin.id"
)

// AdminAuth guards the review endpoints with a shared key. An empty key
// disables the admin surface: every request is refused.
//
// The X-Admin-ID header is stored as-is; its format is checked by the review
// flows so that a malformed id surfaces as a validation error.
func AdminAuth(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(HeaderAdminKey))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			LoggerFrom(c).Warn().Msg("admin auth rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "unauthorized",
				"message":    "admin credentials required",
			})
			return
		}
		if id := strings.TrimSpace(c.GetHeader(HeaderAdminID)); id != "" {
			c.Set(ctxKeyAdminID, id)
		}
		c.Next()
	}
}

// AdminIDFrom returns the admin id accepted by AdminAuth, or "".
func AdminIDFrom(c *gin.Context) string {
	v, _ := c.Get(ctxKeyAdminID)
	return asString(v)
}
