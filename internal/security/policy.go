package security

import (
	"strconv"
	"unicode"
)

// MaxPasswordBytes is bcrypt's input limit; longer passwords cannot be hashed.
const MaxPasswordBytes = 72

// PasswordPolicy mirrors the usual identity-framework defaults.
type PasswordPolicy struct {
	MinLength       int
	MaxBytes        int
	RequireDigit    bool
	RequireLower    bool
	RequireUpper    bool
	RequireNonAlnum bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:       6,
		MaxBytes:        MaxPasswordBytes,
		RequireDigit:    true,
		RequireLower:    true,
		RequireUpper:    true,
		RequireNonAlnum: true,
	}
}

// Check returns the reasons the password fails the policy, in a stable order.
// An empty slice means the password is acceptable.
func (p PasswordPolicy) Check(password string) []string {
	var reasons []string

	if len([]rune(password)) < p.MinLength {
		reasons = append(reasons, "Passwords must be at least "+strconv.Itoa(p.MinLength)+" characters.")
	}

	if p.MaxBytes > 0 && len(password) > p.MaxBytes {
		reasons = append(reasons, "Passwords must be at most "+strconv.Itoa(p.MaxBytes)+" bytes.")
	}

	var digit, lower, upper, other bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			other = true
		}
	}

	if p.RequireNonAlnum && !other {
		reasons = append(reasons, "Passwords must have at least one non alphanumeric character.")
	}
	if p.RequireDigit && !digit {
		reasons = append(reasons, "Passwords must have at least one digit ('0'-'9').")
	}
	if p.RequireLower && !lower {
		reasons = append(reasons, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if p.RequireUpper && !upper {
		reasons = append(reasons, "Passwords must have at least one uppercase ('A'-'Z').")
	}

	return reasons
}
