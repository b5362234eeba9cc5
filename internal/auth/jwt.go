package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/foodservice/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Username string   `json:"name"`
	Email    string   `json:"email"`
	Roles    []string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(secret, issuer, audience string, ttl time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for minting and verifying.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// GenerateAccessToken mints a signed token for u carrying one role claim per
// role it holds right now. Each token gets a fresh jti.
func (m *Manager) GenerateAccessToken(u user.User, roles []string) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		Username: u.Username,
		Email:    u.Email,
		Roles:    append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature, algorithm, issuer, audience and expiry.
// Any failure yields ErrTokenExpired or ErrTokenInvalid; nothing is trusted
// from a token that fails.
func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if _, err := strconv.ParseInt(claims.Subject, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	return claims, nil
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() Identity {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return Identity{
		UserID:   id,
		Username: c.Username,
		Email:    c.Email,
		Roles:    append([]string(nil), c.Roles...),
		TokenID:  c.ID,
	}
}
