package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/geocoder89/foodservice/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

// RespondServiceError maps account/credential errors onto the error envelope.
// Anything it does not recognise is logged and answered with a 500.
func RespondServiceError(ctx *gin.Context, err error) {
	var ve *user.ValidationError

	switch {
	case errors.As(err, &ve):
		RespondError(ctx, http.StatusBadRequest, "validation_failed", ve.Reason, gin.H{"field": ve.Field})
	case errors.Is(err, user.ErrUsernameTaken):
		RespondConflict(ctx, "username_taken", "Username already exists")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email already exists")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
	case errors.Is(err, auth.ErrTooManyAttempts):
		RespondError(ctx, http.StatusTooManyRequests, "too_many_attempts", "Too many failed sign-in attempts. Try again later.", nil)
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired):
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		RespondForbidden(ctx, "You are not allowed to perform this action")
	default:
		// includes user.ErrRoleNotFound: roles are seeded at startup, so a
		// missing one is a deployment fault rather than a bad request
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(), "request_id", requestIDFrom(ctx), "err", err)
		RespondInternal(ctx, "Something went wrong")
	}
}
