package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestVerifierDispatchesByPrefix(t *testing.T) {
	v, err := NewVerifier(fastConfig())
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}

	argon, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	argonHash, err := argon.Hash("supervisor-secret")
	if err != nil {
		t.Fatalf("argon hash: %v", err)
	}

	bc, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	bcryptHash, err := bc.Hash("recruiter-secret")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}

	if !v.Verify("supervisor-secret", argonHash) {
		t.Fatal("expected argon2id hash to verify")
	}
	if !v.Verify("recruiter-secret", bcryptHash) {
		t.Fatal("expected bcrypt hash to verify")
	}
	if v.Verify("recruiter-secret", argonHash) {
		t.Fatal("wrong plaintext verified against argon2id hash")
	}
	if v.Verify("supervisor-secret", bcryptHash) {
		t.Fatal("wrong plaintext verified against bcrypt hash")
	}
}

func TestVerifierAcceptsBcryptVariants(t *testing.T) {
	v, err := NewVerifier(fastConfig())
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("variant-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		variant := prefix + strings.TrimPrefix(string(hash), "$2a$")
		if !v.Verify("variant-secret", variant) {
			t.Fatalf("expected %s hash to verify", prefix)
		}
	}
}

func TestVerifierRejectsUnknownAndMalformed(t *testing.T) {
	v, err := NewVerifier(fastConfig())
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}

	cases := []string{
		"",
		"plaintext-stored-by-mistake",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
		"$2a$04$short",
		"$1$md5$legacy",
	}
	for _, stored := range cases {
		if v.Verify("anything-goes", stored) {
			t.Fatalf("expected %q to verify as false", stored)
		}
	}
}

func TestVerifierRejectsEmptyPlaintext(t *testing.T) {
	v, err := NewVerifier(fastConfig())
	if err != nil {
		t.Fatalf("NewVerifier error: %v", err)
	}
	argon, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := argon.Hash("non-empty-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if v.Verify("", hash) {
		t.Fatal("empty plaintext must not verify")
	}
	v.VerifyDummy("")
}

func TestBcryptRejectsOversizedPlaintext(t *testing.T) {
	bc, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if _, err := bc.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("expected >72 byte plaintext to be rejected")
	}
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out-of-range cost to be rejected")
	}
}
