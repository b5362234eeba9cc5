package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/foodservice/internal/actorctx"
	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// TokenRecorder counts verification outcomes; observability.Prom implements it.
type TokenRecorder interface {
	TokenCheck(result string)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	metrics TokenRecorder
}

func NewAuthMiddleware(jwt TokenVerifier, metrics TokenRecorder) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, metrics: metrics}
}

func (m *AuthMiddleware) record(result string) {
	if m.metrics != nil {
		m.metrics.TokenCheck(result)
	}
}

// RequireAuth rejects the request unless it carries a valid bearer token. On
// success the caller identity is stored on the gin context and on the request
// context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.record("missing")
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			m.record("missing")
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				m.record("expired")
				abortUnauthorized(c, "Access token expired")
				return
			}
			m.record("invalid")
			abortUnauthorized(c, "Invalid access token")
			return
		}

		m.record("valid")

		id := claims.Identity()
		c.Set(CtxIdentity, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// IdentityFromContext returns the caller set by RequireAuth.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.Authenticated()
}

func abortUnauthorized(c *gin.Context, message string) {
	abortError(c, http.StatusUnauthorized, "unauthorized", message)
}
