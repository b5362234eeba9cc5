package credentials

import (
	"context"

	"github.com/geocoder89/foodservice/internal/domain/user"
)

// Repository is the persistence capability behind Store. Lookups take the raw
// username/email; backends compare on user.Normalize.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id int64) (user.User, error)

	// Insert persists u. When elevateRole is non-empty and u turns out to be
	// the only user, the role is granted in the same unit of work and the
	// second return is true.
	Insert(ctx context.Context, u user.User, elevateRole string) (user.User, bool, error)
	Update(ctx context.Context, u user.User) (int64, error)
	Delete(ctx context.Context, id int64) (bool, error)
	UpdatePassword(ctx context.Context, id int64, hash, stamp string) error

	List(ctx context.Context, filter user.ListFilter) ([]user.User, error)
	Count(ctx context.Context) (int64, error)

	RolesOf(ctx context.Context, userID int64) ([]string, error)
	AddRole(ctx context.Context, userID int64, role string) error
}

// RoleRepository is what role bootstrap needs.
type RoleRepository interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	CreateRole(ctx context.Context, role user.Role) error
}
