package user

import (
	"strings"
	"time"
)

type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // never expose hash in JSON
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	TaxID         string    `json:"taxId,omitempty"`
	SecurityStamp string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Profile is the read model handed to callers; roles are resolved separately
// from the membership table.
type Profile struct {
	User
	Roles []string `json:"roles"`
}

type ListFilter struct {
	AfterID int64
	Limit   int // 0 means no limit
}

type SignUpRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,max=72"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
	TaxID       string `json:"taxId" binding:"omitempty,max=32"`
}

type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// a full profile update, mirrors what sign-up accepts minus the password.
type UpdateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Email       string `json:"email" binding:"required,email,max=254"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
	TaxID       string `json:"taxId" binding:"omitempty,max=32"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,max=72"`
}

// Normalize produces the lookup key for usernames, emails and role names.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
