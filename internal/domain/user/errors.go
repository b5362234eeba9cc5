package user

import "errors"

var (
	ErrNotFound         = errors.New("user not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email already exists")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// ValidationError carries the first rule a value failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a recoverable input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken)
}
