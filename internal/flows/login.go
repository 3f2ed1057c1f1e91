package flows

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/jwt"
)

// LoginResult carries the authenticated identity and minted tokens. For
// supervisors Tokens.RenewalToken is empty.
type LoginResult struct {
	Failure  FailureKind
	Err      error
	Identity *identity.Identity
	Tokens   jwt.TokenPair
}

// RunLogin authenticates email and secret for the requested role.
//
// Unknown, deleted, wrong-secret and wrong-role attempts are indistinguishable
// to the caller. Recruiter logins persist the new renewal token, superseding
// any earlier session; supervisor logins never write to the store.
func RunLogin(ctx context.Context, email, secret string, role identity.Role, deps Deps) LoginResult {
	email = identity.NormalizeEmail(email)
	if email == "" || secret == "" || !role.Valid() {
		return LoginResult{Failure: FailureInvalidCredentials}
	}

	ident, err := deps.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			deps.Verifier.VerifyDummy(secret)
			return LoginResult{Failure: FailureInvalidCredentials}
		}
		return LoginResult{Failure: FailureStore, Err: err}
	}
	if ident.Deleted() {
		deps.Verifier.VerifyDummy(secret)
		return LoginResult{Failure: FailureInvalidCredentials}
	}
	if !deps.Verifier.Verify(secret, ident.CredentialHash) {
		return LoginResult{Failure: FailureInvalidCredentials}
	}
	if ident.Role != role {
		return LoginResult{Failure: FailureInvalidCredentials, Err: errors.New("role mismatch")}
	}
	if !ident.CanAuthenticate() {
		return LoginResult{Failure: FailureIdentityInvalid, Identity: ident}
	}

	switch ident.Role {
	case identity.RoleSupervisor:
		access, err := deps.Issuer.IssueAccess(principalOf(ident))
		if err != nil {
			return LoginResult{Failure: FailureIssue, Err: err}
		}
		return LoginResult{Identity: ident, Tokens: jwt.TokenPair{AccessToken: access}}
	default:
		return issueRecruiterPair(ctx, ident, deps)
	}
}

// issueRecruiterPair mints a pair and stores the renewal token in one write.
// Each pair carries a fresh session ID, so a logged-out or superseded renewal
// token never matches a later one issued within the same second.
func issueRecruiterPair(ctx context.Context, ident *identity.Identity, deps Deps) LoginResult {
	p := principalOf(ident)
	p.SessionID = uuid.NewString()
	pair, err := deps.Issuer.IssueTokens(p)
	if err != nil {
		return LoginResult{Failure: FailureIssue, Err: err}
	}
	if err := deps.Store.SetRenewalToken(ctx, ident.ID, pair.RenewalToken); err != nil {
		if errors.Is(err, identity.ErrNotFound) || errors.Is(err, identity.ErrRoleMismatch) {
			return LoginResult{Failure: FailureIdentityInvalid, Err: err}
		}
		return LoginResult{Failure: FailureStore, Err: err}
	}
	ident.RenewalToken = pair.RenewalToken
	return LoginResult{Identity: ident, Tokens: pair}
}
