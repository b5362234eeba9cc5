package auth

import (
	"errors"
	"testing"
)

func TestRequireRole(t *testing.T) {
	admin := Identity{UserID: 1, Username: "alice", Roles: []string{"Admin"}}
	plain := Identity{UserID: 2, Username: "bob"}

	tests := []struct {
		name  string
		id    Identity
		roles []string
		want  error
	}{
		{name: "holder passes", id: admin, roles: []string{"Admin"}, want: nil},
		{name: "any of several", id: admin, roles: []string{"Employee", "Admin"}, want: nil},
		{name: "case sensitive", id: admin, roles: []string{"admin"}, want: ErrForbidden},
		{name: "no roles", id: plain, roles: []string{"Admin"}, want: ErrForbidden},
		{name: "empty requirement fails closed", id: admin, roles: nil, want: ErrForbidden},
		{name: "anonymous", id: Identity{}, roles: []string{"Admin"}, want: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := RequireRole(tt.id, tt.roles...); !errors.Is(err, tt.want) {
				t.Fatalf("RequireRole() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRequireSelfOrRole(t *testing.T) {
	bob := Identity{UserID: 2, Username: "bob"}

	if err := RequireSelfOrRole(bob, 2, "Admin"); err != nil {
		t.Fatalf("self access denied: %v", err)
	}
	if err := RequireSelfOrRole(bob, 3, "Admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other user access = %v, want ErrForbidden", err)
	}

	admin := Identity{UserID: 1, Roles: []string{"Admin"}}
	if err := RequireSelfOrRole(admin, 3, "Admin"); err != nil {
		t.Fatalf("admin access denied: %v", err)
	}
}
