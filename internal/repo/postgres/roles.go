package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// roleID resolves a role name to its id. Roles are never deleted, so ids are
// cached.
func (r *UsersRepo) roleID(ctx context.Context, q querier, name string) (int64, error) {
	key := user.Normalize(name)
	if v, ok := r.roleIDs.Get(key); ok {
		return v, nil
	}

	var id int64
	err := r.observe("roles.find_by_name", func() error {
		return q.QueryRow(ctx, `SELECT id FROM roles WHERE normalized_name = $1`, key).Scan(&id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, user.ErrRoleNotFound
		}
		return 0, storeErr(err)
	}

	r.roleIDs.Set(key, id)
	return id, nil
}

func (r *UsersRepo) RoleExists(ctx context.Context, name string) (bool, error) {
	_, err := r.roleID(ctx, r.pool, name)
	if errors.Is(err, user.ErrRoleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UsersRepo) CreateRole(ctx context.Context, role user.Role) error {
	if role.NormalizedName == "" {
		role.NormalizedName = user.Normalize(role.Name)
	}

	err := r.observe("roles.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO roles (name, normalized_name) VALUES ($1, $2)
			ON CONFLICT ON CONSTRAINT roles_normalized_name_uniq DO NOTHING`,
			role.Name, role.NormalizedName)
		return e
	})
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *UsersRepo) RolesOf(ctx context.Context, userID int64) ([]string, error) {
	var roles []string

	err := r.observe("roles.of_user", func() error {
		var exists bool
		if e := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); e != nil {
			return e
		}
		if !exists {
			return user.ErrNotFound
		}

		rows, e := r.pool.Query(ctx, `
			SELECT r.name FROM user_roles ur
			JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1`, userID)
		if e != nil {
			return e
		}

		roles, e = pgx.CollectRows(rows, pgx.RowTo[string])
		return e
	})
	if errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, storeErr(err)
	}

	sort.Strings(roles)
	return roles, nil
}

func (r *UsersRepo) AddRole(ctx context.Context, userID int64, role string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storeErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.addRoleTx(ctx, tx, userID, role); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *UsersRepo) addRoleTx(ctx context.Context, tx pgx.Tx, userID int64, role string) error {
	roleID, err := r.roleID(ctx, tx, role)
	if err != nil {
		return err
	}

	var affected int64
	err = r.observe("roles.grant", func() error {
		tag, e := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)
			ON CONFLICT DO NOTHING`, userID, roleID)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return storeErr(err)
	}

	if affected == 0 {
		// either already granted or the user is gone
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return storeErr(err)
		}
		if !exists {
			return user.ErrNotFound
		}
	}
	return nil
}
