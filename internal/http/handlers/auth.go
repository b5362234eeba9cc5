package handlers

import (
	"net/http"
	"time"

	"github.com/geocoder89/foodservice/internal/config"
	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates this request
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.accounts.Register(cctx, req); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req user.SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.accounts.Authenticate(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}
