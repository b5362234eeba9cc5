package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/foodservice/internal/config"
	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/geocoder89/foodservice/internal/http/middlewares"
	"github.com/geocoder89/foodservice/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type UsersHandler struct {
	accounts AccountService
}

func NewUsersHandler(accounts AccountService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

type UsersPage struct {
	Items      []user.User `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.accounts.CurrentUser(cctx, caller)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *UsersHandler) List(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	limit := defaultListLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			RespondBadRequest(ctx, "Invalid limit", gin.H{"limit": "must be between 1 and " + strconv.Itoa(maxListLimit)})
			return
		}
		limit = n
	}

	filter := user.ListFilter{Limit: limit + 1}
	if raw := ctx.Query("cursor"); raw != "" {
		c, err := utils.DecodeUserCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		filter.AfterID = c.ID
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.accounts.ListUsers(cctx, caller, filter)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	page := UsersPage{Items: items}
	if page.Items == nil {
		page.Items = []user.User{}
	}

	if len(items) > limit {
		page.Items = items[:limit]
		next, err := utils.EncodeUserCursor(page.Items[limit-1].ID)
		if err != nil {
			RespondInternal(ctx, "Could not build cursor")
			return
		}
		page.NextCursor = next
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.accounts.GetUser(cctx, caller, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, err := h.accounts.UpdateUser(cctx, caller, id, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.accounts.DeleteUser(cctx, caller, id); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *UsersHandler) GrantAdmin(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	p, err := h.accounts.GrantAdmin(cctx, caller, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	caller, _ := middlewares.IdentityFromContext(ctx)

	var req user.ChangePasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.ChangePassword(cctx, caller, req); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func userIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}
	return id, true
}
