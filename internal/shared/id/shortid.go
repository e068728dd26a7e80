// Package id generates Stripe-style prefixed identifiers for merchants,
// locations and staff.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

const (
	PrefixMerchant = "mer"
	PrefixLocation = "loc"
	PrefixStaff    = "stf"
)

// Generate creates a cryptographically random Base62 ID of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// NewStaffID generates a new staff ID.
func NewStaffID() (string, error) {
	return GenerateWithPrefix(PrefixStaff, DefaultLength)
}

// NewLocationID generates a new location ID.
func NewLocationID() (string, error) {
	return GenerateWithPrefix(PrefixLocation, DefaultLength)
}

// NewMerchantID generates a new merchant ID.
func NewMerchantID() (string, error) {
	return GenerateWithPrefix(PrefixMerchant, DefaultLength)
}

// HasPrefix reports whether prefixedID is well formed and carries prefix.
func HasPrefix(prefixedID, prefix string) bool {
	p, rest, ok := strings.Cut(prefixedID, "_")
	return ok && p == prefix && rest != ""
}
