package middlewares

import "github.com/gin-gonic/gin"

// abortError writes the same error envelope the handlers use. The handlers
// package cannot be imported from here.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}
