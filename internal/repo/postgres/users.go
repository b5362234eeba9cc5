package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/foodservice/internal/cache"
	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/geocoder89/foodservice/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// firstUserLockKey serializes elevating inserts so "count == 1" is decided by
// exactly one transaction at a time.
const firstUserLockKey int64 = 0x666f6f64 // "food"

const userColumns = `id, username, email, password_hash, phone_number, tax_id, security_stamp, created_at, updated_at`

type UsersRepo struct {
	pool    *pgxpool.Pool
	prom    *observability.Prom
	roleIDs *cache.TTL[string, int64]
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool:    pool,
		prom:    prom,
		roleIDs: cache.NewTTL[string, int64](10 * time.Minute),
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	return r.prom.ObserveDB(op, fn)
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.PhoneNumber,
		&u.TaxID,
		&u.SecurityStamp,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) findOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, storeErr(err)
	}
	return u, nil
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_username", "normalized_username = $1", user.Normalize(username))
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.find_by_email", "normalized_email = $1", user.Normalize(email))
}

func (r *UsersRepo) FindByID(ctx context.Context, id int64) (user.User, error) {
	return r.findOne(ctx, "users.find_by_id", "id = $1", id)
}

// Insert writes u inside one transaction. With elevateRole set it takes a
// transaction-scoped advisory lock, counts users after the insert, and grants
// the role when u is the only one. A failed grant rolls the insert back.
func (r *UsersRepo) Insert(ctx context.Context, u user.User, elevateRole string) (created user.User, elevated bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return user.User{}, false, storeErr(err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if elevateRole != "" {
		err = r.observe("users.insert.lock", func() error {
			_, e := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, firstUserLockKey)
			return e
		})
		if err != nil {
			return user.User{}, false, storeErr(err)
		}
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	err = r.observe("users.insert", func() error {
		return tx.QueryRow(ctx, `
			INSERT INTO users (username, normalized_username, email, normalized_email, password_hash,
			                   phone_number, tax_id, security_stamp, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id`,
			u.Username, user.Normalize(u.Username), u.Email, user.Normalize(u.Email), u.PasswordHash,
			u.PhoneNumber, u.TaxID, u.SecurityStamp, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.ID)
	})
	if err != nil {
		return user.User{}, false, mapUniqueErr(err)
	}

	if elevateRole != "" {
		var count int64
		err = r.observe("users.insert.count", func() error {
			return tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
		})
		if err != nil {
			return user.User{}, false, storeErr(err)
		}

		if count == 1 {
			if err = r.addRoleTx(ctx, tx, u.ID, elevateRole); err != nil {
				return user.User{}, false, err
			}
			elevated = true
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return user.User{}, false, storeErr(err)
	}

	return u, elevated, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) (int64, error) {
	var affected int64

	err := r.observe("users.update", func() error {
		tag, e := r.pool.Exec(ctx, `
			UPDATE users
			SET username = $2, normalized_username = $3, email = $4, normalized_email = $5,
			    phone_number = $6, tax_id = $7, security_stamp = $8, updated_at = NOW()
			WHERE id = $1`,
			u.ID, u.Username, user.Normalize(u.Username), u.Email, user.Normalize(u.Email),
			u.PhoneNumber, u.TaxID, u.SecurityStamp,
		)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return 0, mapUniqueErr(err)
	}

	return affected, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return false, storeErr(err)
	}

	return affected > 0, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id int64, hash, stamp string) error {
	var affected int64

	err := r.observe("users.update_password", func() error {
		tag, e := r.pool.Exec(ctx, `
			UPDATE users SET password_hash = $2, security_stamp = $3, updated_at = NOW()
			WHERE id = $1`, id, hash, stamp)
		affected = tag.RowsAffected()
		return e
	})
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id > $1 ORDER BY id`
	args := []any{filter.AfterID}
	if filter.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, filter.Limit)
	}

	var out []user.User

	err := r.observe("users.list", func() error {
		rows, e := r.pool.Query(ctx, query, args...)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			u, e := scanUser(rows)
			if e != nil {
				return e
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storeErr(err)
	}

	return out, nil
}

func (r *UsersRepo) Count(ctx context.Context) (int64, error) {
	var n int64

	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	})
	if err != nil {
		return 0, storeErr(err)
	}

	return n, nil
}

func mapUniqueErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_username_uniq":
			return user.ErrUsernameTaken
		case "users_email_uniq":
			return user.ErrEmailTaken
		}
	}
	return storeErr(err)
}

// storeErr tags driver failures so callers can tell them from domain errors.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", user.ErrStoreUnavailable, err)
}
