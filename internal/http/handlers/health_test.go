package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/foodservice/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: connection refused") }

	tests := []struct {
		name   string
		checks map[string]handlers.Check
		want   int
		status map[string]string
	}{
		{
			name:   "all up",
			checks: map[string]handlers.Check{"db": up, "redis": up},
			want:   http.StatusOK,
			status: map[string]string{"db": "up", "redis": "up"},
		},
		{
			name:   "redis down",
			checks: map[string]handlers.Check{"db": up, "redis": down},
			want:   http.StatusServiceUnavailable,
			status: map[string]string{"db": "up", "redis": "down"},
		},
		{
			name:   "no checks",
			checks: nil,
			want:   http.StatusOK,
			status: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks)
			r := gin.New()
			r.GET("/readyz", h.Readyz)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tt.want, w.Code)

			var body struct {
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tt.status, body.Checks)
		})
	}
}
