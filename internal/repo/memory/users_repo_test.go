package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func seededRepo(t *testing.T) *UsersRepo {
	t.Helper()
	r := NewUsersRepo()
	for _, name := range user.WellKnownRoles {
		require.NoError(t, r.CreateRole(context.Background(), user.NewRole(name)))
	}
	return r
}

func TestUsersRepo_UniquenessIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	_, _, err := r.Insert(ctx, user.User{Username: "alice", Email: "alice@x.com"}, "")
	require.NoError(t, err)

	_, _, err = r.Insert(ctx, user.User{Username: "ALICE", Email: "other@x.com"}, "")
	require.ErrorIs(t, err, user.ErrUsernameTaken)

	_, _, err = r.Insert(ctx, user.User{Username: "alice2", Email: "Alice@X.com"}, "")
	require.ErrorIs(t, err, user.ErrEmailTaken)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestUsersRepo_UsernameConflictReportedBeforeEmail(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	_, _, err := r.Insert(ctx, user.User{Username: "alice", Email: "a@x.com"}, "")
	require.NoError(t, err)
	_, _, err = r.Insert(ctx, user.User{Username: "bob", Email: "b@x.com"}, "")
	require.NoError(t, err)

	// map iteration order varies, so repeat to catch an order-dependent answer
	for i := 0; i < 50; i++ {
		_, _, err = r.Insert(ctx, user.User{Username: "alice", Email: "b@x.com"}, "")
		require.ErrorIs(t, err, user.ErrUsernameTaken)
	}
}

func TestUsersRepo_FirstUserElevationIsAtomic(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	var elevated atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := user.User{Username: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("user%d@x.com", i)}
			_, ok, err := r.Insert(ctx, u, user.RoleAdmin)
			if err == nil && ok {
				elevated.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, elevated.Load())
}

func TestUsersRepo_ElevationNeedsRole(t *testing.T) {
	r := NewUsersRepo()

	_, _, err := r.Insert(context.Background(), user.User{Username: "alice", Email: "a@x.com"}, user.RoleAdmin)
	require.ErrorIs(t, err, user.ErrRoleNotFound)

	n, _ := r.Count(context.Background())
	require.Zero(t, n, "failed elevation must not leave the user behind")
}

func TestUsersRepo_AddRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	u, _, err := r.Insert(ctx, user.User{Username: "bob", Email: "bob@x.com"}, "")
	require.NoError(t, err)

	require.NoError(t, r.AddRole(ctx, u.ID, user.RoleAdmin))
	require.NoError(t, r.AddRole(ctx, u.ID, user.RoleAdmin))
	require.ErrorIs(t, r.AddRole(ctx, u.ID, "Chef"), user.ErrRoleNotFound)

	roles, err := r.RolesOf(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{user.RoleAdmin}, roles)
}

func TestUsersRepo_ListPagesByID(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	for i := 0; i < 5; i++ {
		_, _, err := r.Insert(ctx, user.User{Username: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@x.com", i)}, "")
		require.NoError(t, err)
	}

	page, err := r.List(ctx, user.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.EqualValues(t, 1, page[0].ID)

	rest, err := r.List(ctx, user.ListFilter{AfterID: page[1].ID})
	require.NoError(t, err)
	require.Len(t, rest, 3)
	require.EqualValues(t, 3, rest[0].ID)
}

func TestUsersRepo_DeleteDropsMemberships(t *testing.T) {
	ctx := context.Background()
	r := seededRepo(t)

	u, ok, err := r.Insert(ctx, user.User{Username: "alice", Email: "a@x.com"}, user.RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := r.Delete(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = r.Delete(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = r.RolesOf(ctx, u.ID)
	require.ErrorIs(t, err, user.ErrNotFound)
}
