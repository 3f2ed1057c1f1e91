package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes and verifies bcrypt ($2a$, $2b$, $2y$) hashes.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. Cost 0 selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a bcrypt hash of plaintext. bcrypt ignores input past 72
// bytes, so longer plaintexts are rejected.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if err := checkLength(plaintext); err != nil {
		return "", err
	}
	if len(plaintext) > 72 {
		return "", ErrSecretLength
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares plaintext with a stored bcrypt hash.
func (b *Bcrypt) Verify(plaintext, encoded string) (bool, error) {
	return verifyBcrypt(plaintext, encoded)
}

func verifyBcrypt(plaintext, encoded string) (bool, error) {
	if !isBcrypt(encoded) {
		return false, ErrMalformedHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
