package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCheck(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("Passw0rd!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if hash == "Passw0rd!" || strings.Contains(hash, "Passw0rd!") {
		t.Fatalf("hash leaks the raw password: %q", hash)
	}

	if err := h.CheckPassword(hash, "Passw0rd!"); err != nil {
		t.Fatalf("CheckPassword(correct) error: %v", err)
	}

	if err := h.CheckPassword(hash, "passw0rd!"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("CheckPassword(wrong) error = %v, want ErrPasswordMismatch", err)
	}
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, _ := h.HashPassword("Passw0rd!")
	b, _ := h.HashPassword("Passw0rd!")

	if a == b {
		t.Fatalf("two hashes of the same password are equal")
	}
}

func TestNewHasher_OutOfRangeCostFallsBack(t *testing.T) {
	if got := NewHasher(99).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}

func TestPasswordPolicy_Check(t *testing.T) {
	p := DefaultPasswordPolicy()

	tests := []struct {
		password  string
		wantFirst string
	}{
		{password: "Passw0rd!", wantFirst: ""},
		{password: "Pa0!", wantFirst: "Passwords must be at least 6 characters."},
		{password: "Passw0rd", wantFirst: "Passwords must have at least one non alphanumeric character."},
		{password: "Password!", wantFirst: "Passwords must have at least one digit ('0'-'9')."},
		{password: "PASSW0RD!", wantFirst: "Passwords must have at least one lowercase ('a'-'z')."},
		{password: "passw0rd!", wantFirst: "Passwords must have at least one uppercase ('A'-'Z')."},
		{password: "Aa1!" + strings.Repeat("x", 68), wantFirst: ""},
		{password: "Aa1!" + strings.Repeat("x", 69), wantFirst: "Passwords must be at most 72 bytes."},
		// 39 characters but 74 bytes
		{password: "Aa1!" + strings.Repeat("é", 35), wantFirst: "Passwords must be at most 72 bytes."},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			reasons := p.Check(tt.password)

			if tt.wantFirst == "" {
				if len(reasons) != 0 {
					t.Fatalf("Check(%q) = %v, want none", tt.password, reasons)
				}
				return
			}

			if len(reasons) == 0 || reasons[0] != tt.wantFirst {
				t.Fatalf("Check(%q) = %v, want first %q", tt.password, reasons, tt.wantFirst)
			}
		})
	}
}

func TestHasher_TooLongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.HashPassword("Aa1!" + strings.Repeat("x", 76))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("HashPassword() error = %v, want ErrPasswordTooLong", err)
	}
}

func TestHasher_CheckUnknownUserRunsCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost + 1)

	if err := h.CheckAgainstDummy("Passw0rd!"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("CheckAgainstDummy() error = %v, want ErrPasswordMismatch", err)
	}

	// the dummy hash is built once, at the hasher's own cost, so the
	// compare costs what a real one does
	cost, err := bcrypt.Cost([]byte(h.dummyHash()))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcrypt.MinCost+1 {
		t.Fatalf("dummy cost = %d, want %d", cost, bcrypt.MinCost+1)
	}
}

func TestHasher_CheckPasswordTooLongNeverMatches(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	base := "Aa1!" + strings.Repeat("x", 68)

	hash, err := h.HashPassword(base)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	// same first 72 bytes, so plain bcrypt truncation would accept it
	if err := h.CheckPassword(hash, base+"extra"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("CheckPassword() error = %v, want ErrPasswordMismatch", err)
	}
}
