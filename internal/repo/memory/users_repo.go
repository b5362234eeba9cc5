package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/foodservice/internal/domain/user"
)

// UsersRepo keeps users, roles and memberships in maps behind one mutex, which
// also makes first-user elevation atomic.
type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]user.User
	roles  map[string]user.Role // normalized name -> role
	member map[int64][]string   // user id -> role names
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		users:  make(map[int64]user.User),
		roles:  make(map[string]user.Role),
		member: make(map[int64][]string),
	}
}

func (r *UsersRepo) FindByUsername(_ context.Context, username string) (user.User, error) {
	key := user.Normalize(username)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if user.Normalize(u.Username) == key {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	key := user.Normalize(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if user.Normalize(u.Email) == key {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) FindByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	u, ok := r.users[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Insert(_ context.Context, u user.User, elevateRole string) (user.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUniqueLocked(u, 0); err != nil {
		return user.User{}, false, err
	}

	elevate := elevateRole != "" && len(r.users) == 0
	if elevate {
		if _, ok := r.roles[user.Normalize(elevateRole)]; !ok {
			return user.User{}, false, user.ErrRoleNotFound
		}
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u

	if elevate {
		r.member[u.ID] = []string{r.roles[user.Normalize(elevateRole)].Name}
	}

	return u, elevate, nil
}

func (r *UsersRepo) Update(_ context.Context, u user.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.users[u.ID]
	if !ok {
		return 0, nil
	}

	if err := r.checkUniqueLocked(u, u.ID); err != nil {
		return 0, err
	}

	cur.Username = u.Username
	cur.Email = u.Email
	cur.PhoneNumber = u.PhoneNumber
	cur.TaxID = u.TaxID
	cur.SecurityStamp = u.SecurityStamp
	cur.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = cur

	return 1, nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}

	delete(r.users, id)
	delete(r.member, id)
	return true, nil
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id int64, hash, stamp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}

	u.PasswordHash = hash
	u.SecurityStamp = stamp
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func (r *UsersRepo) List(_ context.Context, filter user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		if u.ID > filter.AfterID {
			out = append(out, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *UsersRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

func (r *UsersRepo) RolesOf(_ context.Context, userID int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[userID]; !ok {
		return nil, user.ErrNotFound
	}

	roles := slices.Clone(r.member[userID])
	slices.Sort(roles)
	return roles, nil
}

func (r *UsersRepo) AddRole(_ context.Context, userID int64, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return user.ErrNotFound
	}

	rl, ok := r.roles[user.Normalize(role)]
	if !ok {
		return user.ErrRoleNotFound
	}

	if slices.Contains(r.member[userID], rl.Name) {
		return nil
	}
	r.member[userID] = append(r.member[userID], rl.Name)
	return nil
}

func (r *UsersRepo) RoleExists(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	_, ok := r.roles[user.Normalize(name)]
	r.mu.RUnlock()

	return ok, nil
}

func (r *UsersRepo) CreateRole(_ context.Context, role user.Role) error {
	if role.NormalizedName == "" {
		role.NormalizedName = user.Normalize(role.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[role.NormalizedName]; ok {
		return nil
	}

	role.ID = int64(len(r.roles) + 1)
	r.roles[role.NormalizedName] = role
	return nil
}

// checkUniqueLocked enforces the username/email uniqueness the postgres
// schema gets from its constraints. skipID excludes the row being updated.
func (r *UsersRepo) checkUniqueLocked(u user.User, skipID int64) error {
	name, email := user.Normalize(u.Username), user.Normalize(u.Email)

	// username first across every row, then email, the same order
	// registration checks them in
	for id, existing := range r.users {
		if id != skipID && user.Normalize(existing.Username) == name {
			return user.ErrUsernameTaken
		}
	}
	for id, existing := range r.users {
		if id != skipID && user.Normalize(existing.Email) == email {
			return user.ErrEmailTaken
		}
	}
	return nil
}
