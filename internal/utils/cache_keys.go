package utils

import (
	"strings"
)

// SignInAttemptKey namespaces the failed sign-in counter for a username. The
// username is folded the same way the credential store compares it.
func SignInAttemptKey(username string) string {
	return "auth:signin:fail:v1:" + strings.ToUpper(strings.TrimSpace(username))
}

// RateLimitKey namespaces a per-client fixed-window counter.
func RateLimitKey(scope, clientIP string) string {
	return "ratelimit:v1:" + scope + ":" + clientIP
}
