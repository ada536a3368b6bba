// Package readonly serves the library without letting requests change it.
package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ContextKey holds the read-only flag on the gin context.
const ContextKey = "read_only"

// allowedPrefixes may be posted to in read-only mode. Signing in and listing
// the images of a fragment do not touch the library.
var allowedPrefixes = []string{
	"/auth/",
	"/api/content/images",
}

// Middleware rejects requests that would modify the library while read-only
// mode is on. GET, HEAD and OPTIONS always pass.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// IsEnabled returns whether read-only mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKey, m.enabled)

		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("write blocked in read-only mode")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "The media library is read-only",
			"code":      "read_only",
			"read_only": true,
		})
	}
}

func isAllowedPath(path string) bool {
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Enabled reports whether the request passed through an enabled Middleware.
func Enabled(c *gin.Context) bool {
	return c.GetBool(ContextKey)
}
