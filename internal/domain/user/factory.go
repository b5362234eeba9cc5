package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewFromSignUp builds an unsaved User with a fresh security stamp. The
// password hash is filled in by the credential store.
func NewFromSignUp(req SignUpRequest) User {
	now := time.Now().UTC()
	return User{
		Username:      strings.TrimSpace(req.Username),
		Email:         strings.TrimSpace(req.Email),
		PhoneNumber:   req.PhoneNumber,
		TaxID:         req.TaxID,
		SecurityStamp: NewSecurityStamp(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func NewSecurityStamp() string {
	return uuid.NewString()
}

// ApplyUpdate copies the mutable profile fields and rotates the security stamp
// when the sign-in identity (username or email) changed.
func (u *User) ApplyUpdate(req UpdateUserRequest) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if Normalize(username) != Normalize(u.Username) || Normalize(email) != Normalize(u.Email) {
		u.SecurityStamp = NewSecurityStamp()
	}

	u.Username = username
	u.Email = email
	u.PhoneNumber = req.PhoneNumber
	u.TaxID = req.TaxID
	u.UpdatedAt = time.Now().UTC()
}
