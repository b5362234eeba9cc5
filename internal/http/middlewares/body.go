package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies. A declared Content-Length over the cap is
// refused up front; chunked bodies fail later when the binder hits the limit.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			abortError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// RequireJSON rejects write requests whose body is not declared as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || mt != "application/json" {
				abortError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
