package handlers

import (
	"context"

	"github.com/geocoder89/foodservice/internal/account"
	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

// AccountService is what the auth and users handlers need from account.Service.
type AccountService interface {
	Register(ctx context.Context, req user.SignUpRequest) (user.Profile, error)
	Authenticate(ctx context.Context, req user.SignInRequest) (account.SignInResult, error)
	CurrentUser(ctx context.Context, caller auth.Identity) (user.Profile, error)
	ListUsers(ctx context.Context, caller auth.Identity, filter user.ListFilter) ([]user.User, error)
	GetUser(ctx context.Context, caller auth.Identity, id int64) (user.Profile, error)
	UpdateUser(ctx context.Context, caller auth.Identity, id int64, req user.UpdateUserRequest) (user.Profile, error)
	DeleteUser(ctx context.Context, caller auth.Identity, id int64) error
	GrantAdmin(ctx context.Context, caller auth.Identity, id int64) (user.Profile, error)
	ChangePassword(ctx context.Context, caller auth.Identity, req user.ChangePasswordRequest) error
}
