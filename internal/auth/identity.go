package auth

import "slices"

// Identity is the authenticated caller resolved from a verified token.
type Identity struct {
	UserID   int64
	Username string
	Email    string
	Roles    []string
	TokenID  string
}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

// HasRole matches role names exactly; "admin" does not satisfy "Admin".
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// RequireRole passes when the caller holds at least one of roles. An empty
// identity or an empty role list never passes.
func RequireRole(id Identity, roles ...string) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}

	for _, r := range roles {
		if id.HasRole(r) {
			return nil
		}
	}

	return ErrForbidden
}

// RequireSelfOrRole passes for the owner of userID or a holder of one of roles.
func RequireSelfOrRole(id Identity, userID int64, roles ...string) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if id.UserID == userID {
		return nil
	}
	return RequireRole(id, roles...)
}
