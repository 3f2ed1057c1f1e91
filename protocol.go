package roleAuth

import (
	"context"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/internal/flows"
)

// roleProtocol is the closed set of per-role session strategies. Every place
// that behaves differently by role dispatches through it.
type roleProtocol interface {
	role() identity.Role
	// verify checks the credential this role presents to the gate.
	verify(ctx context.Context, token string, deps flows.Deps) flows.SessionResult
	// renew exchanges the role's renewal credential for fresh tokens.
	renew(ctx context.Context, token string, deps flows.Deps) flows.RefreshResult
	// logout ends the role's session state, if it has any.
	logout(ctx context.Context, identityID string, deps flows.Deps) (LogoutResult, flows.LogoutResult)
}

// supervisorProtocol: access token only, stateless sessions.
type supervisorProtocol struct{}

func (supervisorProtocol) role() identity.Role { return identity.RoleSupervisor }

func (supervisorProtocol) verify(ctx context.Context, token string, deps flows.Deps) flows.SessionResult {
	return flows.RunVerifyAccess(ctx, token, deps)
}

func (supervisorProtocol) renew(ctx context.Context, token string, deps flows.Deps) flows.RefreshResult {
	return flows.RunSupervisorRefresh(ctx, token, deps)
}

func (supervisorProtocol) logout(context.Context, string, flows.Deps) (LogoutResult, flows.LogoutResult) {
	return LogoutResult{ClearRenewalCookie: false}, flows.LogoutResult{}
}

// recruiterProtocol: access plus stored renewal token, one active renewal
// session per identity.
type recruiterProtocol struct{}

func (recruiterProtocol) role() identity.Role { return identity.RoleRecruiter }

func (recruiterProtocol) verify(ctx context.Context, token string, deps flows.Deps) flows.SessionResult {
	return flows.RunVerifyRenewal(ctx, token, deps)
}

func (recruiterProtocol) renew(ctx context.Context, token string, deps flows.Deps) flows.RefreshResult {
	return flows.RunRecruiterRenew(ctx, token, deps)
}

func (recruiterProtocol) logout(ctx context.Context, identityID string, deps flows.Deps) (LogoutResult, flows.LogoutResult) {
	res := flows.RunRecruiterLogout(ctx, identityID, deps)
	if res.Failure != flows.FailureNone {
		return LogoutResult{}, res
	}
	return LogoutResult{ClearRenewalCookie: true}, res
}

func protocolFor(role identity.Role) (roleProtocol, bool) {
	switch role {
	case identity.RoleSupervisor:
		return supervisorProtocol{}, true
	case identity.RoleRecruiter:
		return recruiterProtocol{}, true
	}
	return nil, false
}

// protocolForCredential maps the extracted credential to its branch: bearer
// access tokens belong to supervisors, renewal tokens to recruiters.
func protocolForCredential(kind CredentialKind) (roleProtocol, bool) {
	switch kind {
	case CredentialAccess:
		return supervisorProtocol{}, true
	case CredentialRenewal:
		return recruiterProtocol{}, true
	}
	return nil, false
}
