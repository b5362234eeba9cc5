package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/auth/sign-up", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/users/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, "/auth/sign-up", "application/json", http.StatusCreated},
		{"json with charset", http.MethodPost, "/auth/sign-up", "application/json; charset=utf-8", http.StatusCreated},
		{"form", http.MethodPost, "/auth/sign-up", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "/auth/sign-up", "", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "/users/me", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMaxBodyBytes_RejectsDeclaredOversize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/auth/sign-in", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(`{"username":"alice"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://app.test/"}))
	r.GET("/users/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/users/me", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Fatalf("allow origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("missing allow methods")
	}

	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
