package account

import (
	"context"

	"github.com/geocoder89/foodservice/internal/credentials"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

// Register creates an account. The very first account ever created is granted
// Admin in the same unit of work; if that grant fails nothing is kept.
// No token is issued here.
func (s *Service) Register(ctx context.Context, req user.SignUpRequest) (user.Profile, error) {
	p, err := s.register(ctx, req)

	switch {
	case err == nil:
		s.metrics.SignUp("ok")
	case user.IsValidation(err):
		s.metrics.SignUp("rejected")
	default:
		s.metrics.SignUp("error")
	}

	return p, err
}

func (s *Service) register(ctx context.Context, req user.SignUpRequest) (user.Profile, error) {
	_, err := s.creds.FindByUsername(ctx, req.Username)
	if err := ensureAbsent(err, user.ErrUsernameTaken); err != nil {
		return user.Profile{}, err
	}

	_, err = s.creds.FindByEmail(ctx, req.Email)
	if err := ensureAbsent(err, user.ErrEmailTaken); err != nil {
		return user.Profile{}, err
	}

	phone, err := user.NormalizePhone(req.PhoneNumber, s.phoneRegion)
	if err != nil {
		return user.Profile{}, err
	}
	taxID, err := user.NormalizeTaxID(req.TaxID)
	if err != nil {
		return user.Profile{}, err
	}

	req.PhoneNumber = phone
	req.TaxID = taxID

	u, elevated, err := s.creds.Create(ctx, user.NewFromSignUp(req), req.Password, credentials.ElevateFirstUser(user.RoleAdmin))
	if err != nil {
		return user.Profile{}, err
	}

	roles := []string{}
	if elevated {
		roles = append(roles, user.RoleAdmin)
		s.metrics.RoleGranted()
		s.log.InfoContext(ctx, "first user elevated", "user_id", u.ID, "role", user.RoleAdmin)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	return user.Profile{User: u, Roles: roles}, nil
}
