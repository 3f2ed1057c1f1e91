package roleAuth

import (
	"errors"
	"net/http"
)

var (
	// ErrNoCredential is returned when a request carries neither an access nor a renewal token.
	ErrNoCredential = errors.New("no credential presented")
	// ErrInvalidToken is returned for malformed tokens, bad signatures and claim mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when an otherwise valid access token is past its expiry.
	ErrTokenExpired = errors.New("access token expired")
	// ErrRenewalExpired is returned when an otherwise valid renewal token is past its expiry.
	ErrRenewalExpired = errors.New("renewal token expired")
	// ErrWrongRole is returned when the token's role does not match the verification branch.
	ErrWrongRole = errors.New("wrong role for this operation")
	// ErrIdentityInvalid covers inactive, unapproved, deleted and superseded sessions.
	ErrIdentityInvalid = errors.New("identity not permitted")
	// ErrInvalidCredentials is returned by Login for unknown emails, wrong secrets and role mismatches.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConfiguration is returned at startup for unusable configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrStore wraps identity store failures. They are never retried.
	ErrStore = errors.New("identity store failure")
	// ErrEngineNotReady is returned when a nil or unbuilt engine is used.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Stable error codes for transport layers.
const (
	CodeNoCredential       = "NO_CREDENTIAL"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeRenewalExpired     = "REFRESH_TOKEN_EXPIRED"
	CodeWrongRole          = "WRONG_ROLE"
	CodeIdentityInvalid    = "IDENTITY_INVALID"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL_ERROR"
)

type errorMapping struct {
	err    error
	code   string
	status int
}

var errorTable = []errorMapping{
	{ErrNoCredential, CodeNoCredential, http.StatusUnauthorized},
	{ErrInvalidToken, CodeInvalidToken, http.StatusUnauthorized},
	{ErrTokenExpired, CodeTokenExpired, http.StatusUnauthorized},
	{ErrRenewalExpired, CodeRenewalExpired, http.StatusUnauthorized},
	{ErrWrongRole, CodeWrongRole, http.StatusForbidden},
	{ErrIdentityInvalid, CodeIdentityInvalid, http.StatusForbidden},
	{ErrInvalidCredentials, CodeInvalidCredentials, http.StatusUnauthorized},
}

// ErrorCode maps err to its stable code. Unknown errors map to CodeInternal.
func ErrorCode(err error) string {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return CodeInternal
}

// HTTPStatus maps err to the HTTP status a transport should return.
func HTTPStatus(err error) int {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
