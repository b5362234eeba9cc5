package db

import (
	"context"
	"log/slog"

	"github.com/geocoder89/foodservice/internal/credentials"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

// EnsureRoles creates each named role that does not exist yet. It never fails:
// a role that cannot be checked or created is logged and skipped, and startup
// continues.
func EnsureRoles(ctx context.Context, roles credentials.RoleRepository, log *slog.Logger, names ...string) {
	for _, name := range names {
		exists, err := roles.RoleExists(ctx, name)
		if err != nil {
			log.ErrorContext(ctx, "role check failed", "role", name, "err", err)
			continue
		}
		if exists {
			continue
		}

		if err := roles.CreateRole(ctx, user.NewRole(name)); err != nil {
			log.ErrorContext(ctx, "role create failed", "role", name, "err", err)
			continue
		}

		log.InfoContext(ctx, "role created", "role", name)
	}
}
