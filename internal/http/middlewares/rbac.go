package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller holds any of roles.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := IdentityFromContext(c)

		err := auth.RequireRole(id, roles...)
		if errors.Is(err, auth.ErrUnauthenticated) {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if err != nil {
			abortError(c, http.StatusForbidden, "forbidden", strings.Join(roles, " or ")+" role required")
			return
		}
		c.Next()
	}
}
