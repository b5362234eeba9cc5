package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/geocoder89/foodservice/internal/security"
)

// Store owns the credential rules: password policy, hashing, and the
// first-user elevation option. Persistence is delegated to a Repository.
type Store struct {
	repo   Repository
	hasher *security.Hasher
	policy security.PasswordPolicy
}

func NewStore(repo Repository, hasher *security.Hasher, policy security.PasswordPolicy) *Store {
	return &Store{repo: repo, hasher: hasher, policy: policy}
}

type createOptions struct {
	elevateRole string
}

type CreateOption func(*createOptions)

// ElevateFirstUser grants role to the new user iff it is the only user once
// inserted. The check and the grant are atomic in every backend.
func ElevateFirstUser(role string) CreateOption {
	return func(o *createOptions) {
		o.elevateRole = role
	}
}

func (s *Store) FindByUsername(ctx context.Context, username string) (user.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *Store) FindByID(ctx context.Context, id int64) (user.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates raw against the password policy, hashes it, and persists u.
// The returned bool reports whether the elevation role was granted.
func (s *Store) Create(ctx context.Context, u user.User, raw string, opts ...CreateOption) (user.User, bool, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := s.checkPolicy(raw); err != nil {
		return user.User{}, false, err
	}

	hash, err := s.hash(raw)
	if err != nil {
		return user.User{}, false, err
	}
	u.PasswordHash = hash

	if u.SecurityStamp == "" {
		u.SecurityStamp = user.NewSecurityStamp()
	}

	return s.repo.Insert(ctx, u, o.elevateRole)
}

func (s *Store) Update(ctx context.Context, u user.User) (int64, error) {
	return s.repo.Update(ctx, u)
}

func (s *Store) Delete(ctx context.Context, u user.User) (bool, error) {
	return s.repo.Delete(ctx, u.ID)
}

func (s *Store) ListAll(ctx context.Context) ([]user.User, error) {
	return s.repo.List(ctx, user.ListFilter{})
}

func (s *Store) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	return s.repo.List(ctx, filter)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *Store) RolesOf(ctx context.Context, u user.User) ([]string, error) {
	return s.repo.RolesOf(ctx, u.ID)
}

// AddRole is a no-op when u already holds role.
func (s *Store) AddRole(ctx context.Context, u user.User, role string) error {
	return s.repo.AddRole(ctx, u.ID, role)
}

// CheckPassword reports whether raw matches the stored hash. A false result
// with a nil error is a plain mismatch.
func (s *Store) CheckPassword(u user.User, raw string) (bool, error) {
	err := s.hasher.CheckPassword(u.PasswordHash, raw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, security.ErrPasswordMismatch):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// CheckUnknownUser spends one bcrypt compare on raw and always reports a
// mismatch. Sign-in uses it when the username does not exist.
func (s *Store) CheckUnknownUser(raw string) bool {
	_ = s.hasher.CheckAgainstDummy(raw)
	return false
}

// SetPassword replaces the password and rotates the security stamp.
func (s *Store) SetPassword(ctx context.Context, u user.User, raw string) (user.User, error) {
	if err := s.checkPolicy(raw); err != nil {
		return user.User{}, err
	}

	hash, err := s.hash(raw)
	if err != nil {
		return user.User{}, err
	}

	stamp := user.NewSecurityStamp()
	if err := s.repo.UpdatePassword(ctx, u.ID, hash, stamp); err != nil {
		return user.User{}, err
	}

	u.PasswordHash = hash
	u.SecurityStamp = stamp
	u.UpdatedAt = time.Now().UTC()
	return u, nil
}

func (s *Store) hash(raw string) (string, error) {
	hash, err := s.hasher.HashPassword(raw)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", user.NewValidationError("password", "Passwords must be at most "+strconv.Itoa(security.MaxPasswordBytes)+" bytes.")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *Store) checkPolicy(raw string) error {
	if reasons := s.policy.Check(raw); len(reasons) > 0 {
		return user.NewValidationError("password", reasons[0])
	}
	return nil
}
