package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/jwt"
)

// RefreshResult is returned by the renewal flows. Claims is set whenever the
// presented token parsed, including on later failures.
type RefreshResult struct {
	Failure  FailureKind
	Err      error
	Identity *identity.Identity
	Claims   *jwt.Claims
	Tokens   jwt.TokenPair
}

// RunSupervisorRefresh exchanges a supervisor access token, live or expired,
// for a fresh one. Expiry is the only verification failure that is bypassed;
// a token that fails for any other reason is rejected even when it is also
// past its expiry.
func RunSupervisorRefresh(ctx context.Context, tokenStr string, deps Deps) RefreshResult {
	access := deps.Issuer.Access()

	claims, err := access.Parse(tokenStr)
	if err != nil {
		if !errors.Is(err, jwt.ErrExpired) {
			return RefreshResult{Failure: FailureInvalidToken, Err: err}
		}
		claims, err = access.ParseAllowExpired(tokenStr)
		if err != nil {
			return RefreshResult{Failure: FailureInvalidToken, Err: err}
		}
		if deps.SupervisorRenewalGrace > 0 && deps.Now().After(claims.ExpiresAt.Add(deps.SupervisorRenewalGrace)) {
			return RefreshResult{Failure: FailureTokenExpired, Err: errors.New("renewal grace elapsed"), Claims: claims}
		}
	}
	if identity.Role(claims.Role) != identity.RoleSupervisor {
		return RefreshResult{Failure: FailureWrongRole, Claims: claims}
	}

	ident, res := loadLive(ctx, claims.IdentityID, identity.RoleSupervisor, deps)
	if res.Failure != FailureNone {
		return RefreshResult{Failure: res.Failure, Err: res.Err, Claims: claims}
	}

	token, err := deps.Issuer.IssueAccess(principalOf(ident))
	if err != nil {
		return RefreshResult{Failure: FailureIssue, Err: err, Claims: claims}
	}
	return RefreshResult{Identity: ident, Claims: claims, Tokens: jwt.TokenPair{AccessToken: token}}
}

// RunRecruiterRenew verifies a renewal token exactly like RunVerifyRenewal and
// then rotates it: a new pair is minted and the new renewal token replaces the
// presented one in a single store write.
func RunRecruiterRenew(ctx context.Context, tokenStr string, deps Deps) RefreshResult {
	verified := RunVerifyRenewal(ctx, tokenStr, deps)
	if verified.Failure != FailureNone {
		return RefreshResult{Failure: verified.Failure, Err: verified.Err, Claims: verified.Claims}
	}

	issued := issueRecruiterPair(ctx, verified.Identity, deps)
	return RefreshResult{
		Failure:  issued.Failure,
		Err:      issued.Err,
		Identity: issued.Identity,
		Claims:   verified.Claims,
		Tokens:   issued.Tokens,
	}
}
