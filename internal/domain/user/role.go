package user

const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
)

// WellKnownRoles are created at startup when absent.
var WellKnownRoles = []string{RoleAdmin, RoleEmployee}

type Role struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"-"`
}

func NewRole(name string) Role {
	return Role{Name: name, NormalizedName: Normalize(name)}
}
