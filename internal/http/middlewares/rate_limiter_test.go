package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/throttle"
	"github.com/gin-gonic/gin"
)

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(throttle.NewMemoryCounter(), "auth", 2, time.Minute)

	r := gin.New()
	r.POST("/auth/sign-in", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}

	w := send("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	if w := send("10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("other client status = %d", w.Code)
	}
}

func TestRateLimiter_KeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(throttle.NewMemoryCounter(), "password", 1, time.Minute)

	r := gin.New()
	r.PUT("/users/me/password",
		func(c *gin.Context) {
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				id, _ := strconv.ParseInt(uid, 10, 64)
				c.Set(CtxIdentity, auth.Identity{UserID: id})
			}
			c.Next()
		},
		rl.RateLimiterMiddleware(KeyByUserOrIP),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	send := func(ip, uid string) int {
		req := httptest.NewRequest(http.MethodPut, "/users/me/password", nil)
		req.RemoteAddr = ip + ":40000"
		if uid != "" {
			req.Header.Set("X-Test-User", uid)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.1", "7"); code != http.StatusNoContent {
		t.Fatalf("first status = %d", code)
	}
	// same user from another address shares the budget
	if code := send("10.0.0.2", "7"); code != http.StatusTooManyRequests {
		t.Fatalf("same user status = %d, want 429", code)
	}
	// another user behind the first address has its own
	if code := send("10.0.0.1", "8"); code != http.StatusNoContent {
		t.Fatalf("other user status = %d", code)
	}
	// no identity falls back to the client address
	if code := send("10.0.0.3", ""); code != http.StatusNoContent {
		t.Fatalf("anonymous status = %d", code)
	}
	if code := send("10.0.0.3", ""); code != http.StatusTooManyRequests {
		t.Fatalf("anonymous repeat status = %d, want 429", code)
	}
}
