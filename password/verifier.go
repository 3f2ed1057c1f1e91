package password

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Hasher produces stored credential hashes. Both [Argon2] and [Bcrypt] implement it.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// Verifier checks plaintext secrets against stored hashes of either supported
// algorithm. It never retries and keeps no state between calls.
type Verifier struct {
	dummy string
}

// NewVerifier builds a Verifier. The dummy hash used for unknown accounts is
// derived with cfg so a miss costs the same as a real verification.
func NewVerifier(cfg Argon2Config) (*Verifier, error) {
	hasher, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, err
	}

	return &Verifier{dummy: dummy}, nil
}

// Verify reports whether plaintext matches stored. Unknown algorithms,
// malformed hashes and oversized input all yield false.
func (v *Verifier) Verify(plaintext, stored string) bool {
	if plaintext == "" || len(plaintext) > MaxSecretBytes {
		return false
	}

	var (
		ok  bool
		err error
	)
	switch {
	case strings.HasPrefix(stored, argon2Prefix):
		ok, err = verifyArgon2(plaintext, stored)
	case isBcrypt(stored):
		ok, err = verifyBcrypt(plaintext, stored)
	default:
		return false
	}
	return err == nil && ok
}

// VerifyDummy burns one verification against a throwaway hash. Login calls it
// when the email is unknown.
func (v *Verifier) VerifyDummy(plaintext string) {
	_, _ = verifyArgon2(plaintext, v.dummy)
}
