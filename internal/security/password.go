package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrPasswordTooLong  = errors.New("password exceeds 72 bytes")
)

// Hasher wraps bcrypt with a configurable cost so tests can use the minimum.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password in constant time.
// Input past MaxPasswordBytes can never match a stored hash; it is still
// compared (truncated) so the call costs the same.
func (h *Hasher) CheckPassword(hash, plain string) error {
	if len(plain) > MaxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain[:MaxPasswordBytes]))
		return ErrPasswordMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// CheckAgainstDummy runs a full compare against a hash no password matches.
// Sign-in calls it for unknown usernames so they cost as much as a wrong
// password. It always reports a mismatch.
func (h *Hasher) CheckAgainstDummy(plain string) error {
	_ = h.CheckPassword(h.dummyHash(), plain)
	return ErrPasswordMismatch
}

func (h *Hasher) dummyHash() string {
	h.dummyOnce.Do(func() {
		// random-looking but fixed input; only the cost matters
		b, err := bcrypt.GenerateFromPassword([]byte("dummy-password-never-issued"), h.cost)
		if err == nil {
			h.dummy = string(b)
		}
	})
	return h.dummy
}
