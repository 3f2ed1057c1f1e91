package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/jwt"
)

// RunVerifyAccess verifies a bearer access token for the supervisor branch:
// signature and expiry, role, then live identity state.
func RunVerifyAccess(ctx context.Context, tokenStr string, deps Deps) SessionResult {
	claims, err := deps.Issuer.Access().Parse(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return SessionResult{Failure: FailureTokenExpired, Err: err}
		}
		return SessionResult{Failure: FailureInvalidToken, Err: err}
	}
	if identity.Role(claims.Role) != identity.RoleSupervisor {
		return SessionResult{Failure: FailureWrongRole, Claims: claims}
	}

	ident, res := loadLive(ctx, claims.IdentityID, identity.RoleSupervisor, deps)
	if res.Failure != FailureNone {
		res.Claims = claims
		return res
	}
	return SessionResult{Identity: ident, Claims: claims}
}

// RunVerifyRenewal verifies a recruiter renewal token: signature and expiry,
// role, live identity state, and exact equality with the stored token.
func RunVerifyRenewal(ctx context.Context, tokenStr string, deps Deps) SessionResult {
	claims, err := deps.Issuer.Renewal().Parse(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return SessionResult{Failure: FailureRenewalExpired, Err: err}
		}
		return SessionResult{Failure: FailureInvalidToken, Err: err}
	}
	if identity.Role(claims.Role) != identity.RoleRecruiter {
		return SessionResult{Failure: FailureWrongRole, Claims: claims}
	}

	ident, res := loadLive(ctx, claims.IdentityID, identity.RoleRecruiter, deps)
	if res.Failure != FailureNone {
		res.Claims = claims
		return res
	}
	if !tokensEqual(ident.RenewalToken, tokenStr) {
		return SessionResult{Failure: FailureIdentityInvalid, Err: errors.New("renewal token superseded or revoked"), Claims: claims}
	}
	return SessionResult{Identity: ident, Claims: claims}
}

// loadLive re-reads the identity and requires it to be present, not deleted,
// active, approved and still of the expected role.
func loadLive(ctx context.Context, id string, role identity.Role, deps Deps) (*identity.Identity, SessionResult) {
	ident, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, SessionResult{Failure: FailureIdentityInvalid, Err: err}
		}
		return nil, SessionResult{Failure: FailureStore, Err: err}
	}
	if ident.Deleted() || !ident.CanAuthenticate() {
		return nil, SessionResult{Failure: FailureIdentityInvalid, Err: errors.New("identity not active and approved")}
	}
	if ident.Role != role {
		return nil, SessionResult{Failure: FailureIdentityInvalid, Err: errors.New("identity role changed")}
	}
	return ident, SessionResult{}
}

func tokensEqual(stored, presented string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
