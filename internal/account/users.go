package account

import (
	"context"
	"strings"

	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

// Every operation below takes the caller explicitly; none of them reads
// identity from ambient state.

func (s *Service) CurrentUser(ctx context.Context, caller auth.Identity) (user.Profile, error) {
	if !caller.Authenticated() {
		return user.Profile{}, auth.ErrUnauthenticated
	}

	u, err := s.creds.FindByID(ctx, caller.UserID)
	if err != nil {
		return user.Profile{}, err
	}
	return s.profile(ctx, u)
}

func (s *Service) ListUsers(ctx context.Context, caller auth.Identity, filter user.ListFilter) ([]user.User, error) {
	if !caller.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}
	return s.creds.List(ctx, filter)
}

func (s *Service) GetUser(ctx context.Context, caller auth.Identity, id int64) (user.Profile, error) {
	if !caller.Authenticated() {
		return user.Profile{}, auth.ErrUnauthenticated
	}

	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return user.Profile{}, err
	}
	return s.profile(ctx, u)
}

// UpdateUser replaces the profile fields of user id. Callers may update
// themselves; Admins may update anyone.
func (s *Service) UpdateUser(ctx context.Context, caller auth.Identity, id int64, req user.UpdateUserRequest) (user.Profile, error) {
	if err := auth.RequireSelfOrRole(caller, id, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}

	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return user.Profile{}, err
	}

	if user.Normalize(req.Username) != user.Normalize(u.Username) {
		_, err := s.creds.FindByUsername(ctx, req.Username)
		if err := ensureAbsent(err, user.ErrUsernameTaken); err != nil {
			return user.Profile{}, err
		}
	}
	if user.Normalize(req.Email) != user.Normalize(u.Email) {
		_, err := s.creds.FindByEmail(ctx, req.Email)
		if err := ensureAbsent(err, user.ErrEmailTaken); err != nil {
			return user.Profile{}, err
		}
	}

	if req.PhoneNumber, err = user.NormalizePhone(req.PhoneNumber, s.phoneRegion); err != nil {
		return user.Profile{}, err
	}
	if req.TaxID, err = user.NormalizeTaxID(req.TaxID); err != nil {
		return user.Profile{}, err
	}

	u.ApplyUpdate(req)

	n, err := s.creds.Update(ctx, u)
	if err != nil {
		return user.Profile{}, err
	}
	if n == 0 {
		return user.Profile{}, user.ErrNotFound
	}

	return s.profile(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, caller auth.Identity, id int64) error {
	if err := auth.RequireSelfOrRole(caller, id, user.RoleAdmin); err != nil {
		return err
	}

	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.creds.Delete(ctx, u)
	if err != nil {
		return err
	}
	if !deleted {
		return user.ErrNotFound
	}

	s.log.InfoContext(ctx, "user deleted", "user_id", id, "by", caller.UserID)
	return nil
}

// GrantAdmin adds the Admin role to user id. Only Admins may call it, and
// granting to a user who already is Admin succeeds without change.
func (s *Service) GrantAdmin(ctx context.Context, caller auth.Identity, id int64) (user.Profile, error) {
	if err := auth.RequireRole(caller, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}

	u, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return user.Profile{}, err
	}

	if err := s.creds.AddRole(ctx, u, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}

	s.metrics.RoleGranted()
	s.log.InfoContext(ctx, "admin granted", "user_id", id, "by", caller.UserID)

	return s.profile(ctx, u)
}

// ChangePassword checks the current password, stores the new one and rotates
// the security stamp. Tokens already issued stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, caller auth.Identity, req user.ChangePasswordRequest) error {
	if !caller.Authenticated() {
		return auth.ErrUnauthenticated
	}

	u, err := s.creds.FindByID(ctx, caller.UserID)
	if err != nil {
		return err
	}

	ok, err := s.creds.CheckPassword(u, req.CurrentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrInvalidCredentials
	}

	if strings.TrimSpace(req.NewPassword) == "" {
		return user.NewValidationError("newPassword", "New password is required.")
	}

	if _, err := s.creds.SetPassword(ctx, u, req.NewPassword); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "password changed", "user_id", u.ID)
	return nil
}
