package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/foodservice/internal/throttle"
	"github.com/geocoder89/foodservice/internal/utils"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window limiter over a throttle.Counter, so windows
// are shared across replicas when the counter is redis backed.
type RateLimiter struct {
	counter throttle.Counter
	scope   string
	window  time.Duration
	limit   int
}

func NewRateLimiter(counter throttle.Counter, scope string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		scope:   scope,
		limit:   limit,
		window:  window,
	}
}

// RateLimiterMiddleware enforces the limit for a key derived from the request.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, left, err := rl.counter.Hit(c.Request.Context(), utils.RateLimitKey(rl.scope, key), rl.window)
		if err != nil {
			// counter down: let traffic through rather than lock everyone out
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "scope", rl.scope, "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(left.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			abortError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")

			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by user id if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := IdentityFromContext(c)

	if ok {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
