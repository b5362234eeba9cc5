package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/foodservice/internal/db"
	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepo(t *testing.T) (*UsersRepo, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}

	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("foodservice"),
		tcpostgres.WithUsername("foodservice"),
		tcpostgres.WithPassword("foodservice"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, db.Migrate(dsn))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewUsersRepo(pool, nil)
	for _, name := range user.WellKnownRoles {
		require.NoError(t, repo.CreateRole(ctx, user.NewRole(name)))
	}

	return repo, pool
}

func newUser(name string) user.User {
	return user.User{
		Username:      name,
		Email:         name + "@x.com",
		PasswordHash:  "$2a$04$not-a-real-hash",
		SecurityStamp: user.NewSecurityStamp(),
	}
}

func TestUsersRepo_Postgres(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	t.Run("first user is elevated, second is not", func(t *testing.T) {
		alice, elevated, err := repo.Insert(ctx, newUser("alice"), user.RoleAdmin)
		require.NoError(t, err)
		require.True(t, elevated)

		bob, elevated, err := repo.Insert(ctx, newUser("bob"), user.RoleAdmin)
		require.NoError(t, err)
		require.False(t, elevated)

		roles, err := repo.RolesOf(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, []string{user.RoleAdmin}, roles)

		roles, err = repo.RolesOf(ctx, bob.ID)
		require.NoError(t, err)
		require.Empty(t, roles)
	})

	t.Run("uniqueness maps to domain errors", func(t *testing.T) {
		dup := newUser("ALICE")
		dup.Email = "fresh@x.com"
		_, _, err := repo.Insert(ctx, dup, "")
		require.ErrorIs(t, err, user.ErrUsernameTaken)

		dup = newUser("carol")
		dup.Email = "Alice@X.com"
		_, _, err = repo.Insert(ctx, dup, "")
		require.ErrorIs(t, err, user.ErrEmailTaken)
	})

	t.Run("lookups fold case", func(t *testing.T) {
		u, err := repo.FindByUsername(ctx, "Alice")
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)

		_, err = repo.FindByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, user.ErrNotFound)
	})

	t.Run("add role is idempotent and checks the role", func(t *testing.T) {
		bob, err := repo.FindByUsername(ctx, "bob")
		require.NoError(t, err)

		require.NoError(t, repo.AddRole(ctx, bob.ID, user.RoleEmployee))
		require.NoError(t, repo.AddRole(ctx, bob.ID, user.RoleEmployee))
		require.ErrorIs(t, repo.AddRole(ctx, bob.ID, "Chef"), user.ErrRoleNotFound)
		require.ErrorIs(t, repo.AddRole(ctx, 99999, user.RoleEmployee), user.ErrNotFound)

		roles, err := repo.RolesOf(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, []string{user.RoleEmployee}, roles)
	})

	t.Run("update, list and delete", func(t *testing.T) {
		bob, err := repo.FindByUsername(ctx, "bob")
		require.NoError(t, err)

		bob.PhoneNumber = "+5511912345678"
		n, err := repo.Update(ctx, bob)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		page, err := repo.List(ctx, user.ListFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.Equal(t, "alice", page[0].Username)

		deleted, err := repo.Delete(ctx, bob.ID)
		require.NoError(t, err)
		require.True(t, deleted)

		_, err = repo.RolesOf(ctx, bob.ID)
		require.ErrorIs(t, err, user.ErrNotFound)
	})
}

func TestUsersRepo_ConcurrentFirstUsers(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	var elevated atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := repo.Insert(ctx, newUser(fmt.Sprintf("racer%d", i)), user.RoleAdmin)
			if err == nil && ok {
				elevated.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, elevated.Load())
}
