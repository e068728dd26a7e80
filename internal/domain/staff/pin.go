package staff

import (
	"errors"
	"fmt"
)

const (
	MinPINLength = 4
	MaxPINLength = 6

	// lockoutPrefixLength is how many leading PIN digits scope a lockout counter.
	lockoutPrefixLength = 2
)

var ErrInvalidPINFormat = fmt.Errorf("pin must be %d to %d digits", MinPINLength, MaxPINLength)

// PinHasher hashes and verifies PINs.
type PinHasher interface {
	Hash(pin string) (string, error)
	Verify(pin, hash string) error
}

// ValidatePIN checks that pin is 4 to 6 ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return ErrInvalidPINFormat
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPINFormat
		}
	}
	return nil
}

// PINPrefix returns the leading digits used in lockout identifiers. Shorter
// input is returned whole.
func PINPrefix(pin string) string {
	if len(pin) <= lockoutPrefixLength {
		return pin
	}
	return pin[:lockoutPrefixLength]
}

// ErrPinMismatch is returned by PinHasher.Verify implementations when the PIN
// does not match the hash.
var ErrPinMismatch = errors.New("pin does not match")
