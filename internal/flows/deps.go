package flows

import (
	"time"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/jwt"
)

// FailureKind classifies flow failures for root-level error mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidCredentials
	FailureIdentityInvalid
	FailureInvalidToken
	FailureTokenExpired
	FailureRenewalExpired
	FailureWrongRole
	FailureStore
	FailureIssue
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureIdentityInvalid:
		return "identity_invalid"
	case FailureInvalidToken:
		return "invalid_token"
	case FailureTokenExpired:
		return "token_expired"
	case FailureRenewalExpired:
		return "renewal_expired"
	case FailureWrongRole:
		return "wrong_role"
	case FailureStore:
		return "store_error"
	case FailureIssue:
		return "issue_error"
	}
	return "unknown"
}

// CredentialVerifier checks a plaintext secret against a stored hash.
type CredentialVerifier interface {
	Verify(plaintext, stored string) bool
	VerifyDummy(plaintext string)
}

// Deps is built once by the engine and shared by every flow.
type Deps struct {
	Store    identity.Store
	Issuer   *jwt.Issuer
	Verifier CredentialVerifier
	Now      func() time.Time

	// SupervisorRenewalGrace bounds how long after expiry a supervisor access
	// token may still be exchanged. Zero means no bound.
	SupervisorRenewalGrace time.Duration
}

// SessionResult is returned by flows that verify a presented token.
type SessionResult struct {
	Failure  FailureKind
	Err      error
	Identity *identity.Identity
	Claims   *jwt.Claims
}

func principalOf(ident *identity.Identity) jwt.Principal {
	return jwt.Principal{
		IdentityID:     ident.ID,
		Email:          ident.Email,
		Role:           string(ident.Role),
		OrganizationID: ident.OrganizationID,
	}
}
