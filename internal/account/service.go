package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/foodservice/internal/credentials"
	"github.com/geocoder89/foodservice/internal/domain/user"
)

type Credentials interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, u user.User, raw string, opts ...credentials.CreateOption) (user.User, bool, error)
	Update(ctx context.Context, u user.User) (int64, error)
	Delete(ctx context.Context, u user.User) (bool, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.User, error)
	RolesOf(ctx context.Context, u user.User) ([]string, error)
	AddRole(ctx context.Context, u user.User, role string) error
	CheckPassword(u user.User, raw string) (bool, error)
	CheckUnknownUser(raw string) bool
	SetPassword(ctx context.Context, u user.User, raw string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(u user.User, roles []string) (string, time.Time, error)
}

// AttemptLimiter counts sign-in attempts per username. Attempt counts one
// and reports whether it is still within the allowance.
type AttemptLimiter interface {
	Attempt(ctx context.Context, username string) (bool, error)
	Succeed(ctx context.Context, username string) error
}

// Recorder receives auth outcomes; observability.Prom implements it.
type Recorder interface {
	SignUp(result string)
	SignIn(result string)
	RoleGranted()
}

type Service struct {
	creds       Credentials
	tokens      TokenIssuer
	attempts    AttemptLimiter
	metrics     Recorder
	log         *slog.Logger
	phoneRegion string
}

type Option func(*Service)

func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(s *Service) { s.attempts = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPhoneRegion sets the region used to parse phone numbers without a
// country prefix.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.phoneRegion = region }
}

func NewService(creds Credentials, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		creds:       creds,
		tokens:      tokens,
		metrics:     nopRecorder{},
		log:         slog.Default(),
		phoneRegion: "BR",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignInResult is what a successful sign-in hands back to the caller.
type SignInResult struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        user.Profile `json:"user"`
}

func (s *Service) profile(ctx context.Context, u user.User) (user.Profile, error) {
	roles, err := s.creds.RolesOf(ctx, u)
	if err != nil {
		return user.Profile{}, err
	}
	if roles == nil {
		roles = []string{}
	}
	return user.Profile{User: u, Roles: roles}, nil
}

// ensureAbsent turns a successful lookup into taken and swallows not-found.
func ensureAbsent(err, taken error) error {
	switch {
	case err == nil:
		return taken
	case errors.Is(err, user.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup: %w", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) SignUp(string) {}
func (nopRecorder) SignIn(string) {}
func (nopRecorder) RoleGranted()  {}
