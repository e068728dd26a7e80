package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/heya-pos/heya/internal/domain/merchant"
	"github.com/heya-pos/heya/internal/domain/staff"
)

type BcryptPinHasher struct {
	cost int
}

var _ staff.PinHasher = (*BcryptPinHasher)(nil)

func NewBcryptPinHasher(cost int) *BcryptPinHasher {
	return &BcryptPinHasher{cost: bcryptCost(cost)}
}

func (h *BcryptPinHasher) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate pin hash: %w", err)
	}
	return string(hash), nil
}

// Verify returns staff.ErrPinMismatch on a wrong PIN. A malformed hash is
// reported separately so a corrupt row is visible in logs, but callers treat
// both as "no match".
func (h *BcryptPinHasher) Verify(pin, hash string) error {
	return compare(pin, hash, staff.ErrPinMismatch, "pin")
}

// BcryptPasswordHasher hashes merchant passwords.
type BcryptPasswordHasher struct {
	cost int
}

var _ merchant.PasswordHasher = (*BcryptPasswordHasher)(nil)

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	return &BcryptPasswordHasher{cost: bcryptCost(cost)}
}

func (h *BcryptPasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate password hash: %w", err)
	}
	return string(hash), nil
}

// Verify returns merchant.ErrPasswordMismatch on a wrong password.
func (h *BcryptPasswordHasher) Verify(password, hash string) error {
	return compare(password, hash, merchant.ErrPasswordMismatch, "password")
}

func bcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

func compare(secret, hash string, mismatch error, what string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return mismatch
	default:
		return fmt.Errorf("%s verification failed: %w", what, err)
	}
}
