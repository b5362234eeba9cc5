package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// the docs page loads swagger-ui from unpkg and bootstraps it inline
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"

	hstsValue = "max-age=31536000; includeSubDomains"
)

// SecurityHeaders sets the hardening headers. Responses under /auth carry
// access tokens and must never be cached; hsts should be off only for local
// plain-http development.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/docs") {
			h.Set("Content-Security-Policy", docsCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
		}

		if strings.HasPrefix(path, "/auth/") {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		if hsts {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		c.Next()
	}
}
