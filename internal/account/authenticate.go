package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

// Authenticate verifies username and password and mints an access token with
// the roles the user holds right now. An unknown username and a wrong
// password produce the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, req user.SignInRequest) (SignInResult, error) {
	res, result, err := s.authenticate(ctx, req)
	s.metrics.SignIn(result)
	return res, err
}

func (s *Service) authenticate(ctx context.Context, req user.SignInRequest) (SignInResult, string, error) {
	// the attempt is counted before any password work, so concurrent guesses
	// cannot slip past the allowance between a check and a count
	if s.attempts != nil {
		allowed, err := s.attempts.Attempt(ctx, req.Username)
		if err != nil {
			// the limiter backend being down must not take sign-in with it
			s.log.WarnContext(ctx, "attempt limiter unavailable", "err", err)
			allowed = true
		}
		if !allowed {
			return SignInResult{}, "locked", auth.ErrTooManyAttempts
		}
	}

	u, err := s.creds.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// pay for a compare anyway so timing does not reveal the miss
			s.creds.CheckUnknownUser(req.Password)
			return SignInResult{}, "invalid", auth.ErrInvalidCredentials
		}
		return SignInResult{}, "error", err
	}

	ok, err := s.creds.CheckPassword(u, req.Password)
	if err != nil {
		return SignInResult{}, "error", err
	}
	if !ok {
		return SignInResult{}, "invalid", auth.ErrInvalidCredentials
	}

	p, err := s.profile(ctx, u)
	if err != nil {
		return SignInResult{}, "error", err
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u, p.Roles)
	if err != nil {
		return SignInResult{}, "error", fmt.Errorf("issue token: %w", err)
	}

	if s.attempts != nil {
		if err := s.attempts.Succeed(ctx, req.Username); err != nil {
			s.log.WarnContext(ctx, "attempt limiter reset failed", "err", err)
		}
	}

	s.log.InfoContext(ctx, "user signed in", "user_id", u.ID)

	return SignInResult{AccessToken: token, ExpiresAt: expiresAt, User: p}, "ok", nil
}
