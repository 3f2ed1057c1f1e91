package roleAuth

import "github.com/MrEthical07/roleAuth/identity"

// CredentialKind identifies which verification branch a credential selects.
type CredentialKind int

const (
	// CredentialNone means nothing was presented.
	CredentialNone CredentialKind = iota
	// CredentialAccess is a bearer access token. It selects the supervisor branch.
	CredentialAccess
	// CredentialRenewal is a renewal token from cookie, header or body. It
	// selects the recruiter branch.
	CredentialRenewal
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialAccess:
		return "access"
	case CredentialRenewal:
		return "renewal"
	}
	return "none"
}

// Credential is a token extracted from a request together with the branch it selects.
type Credential struct {
	Kind  CredentialKind
	Token string
}

// LoginRequest is the input to [Engine.Login].
type LoginRequest struct {
	Email  string
	Secret string
	Role   identity.Role
}

// LoginResult is returned by [Engine.Login] and [Engine.RenewRecruiterSession].
// RenewalToken is empty for supervisors.
type LoginResult struct {
	Role         identity.Role
	AccessToken  string
	RenewalToken string
	Profile      *identity.PublicProfile
}

// AuthContext is the authorization context attached to an authenticated request.
type AuthContext struct {
	IdentityID     string
	Email          string
	Role           identity.Role
	OrganizationID string
	Identity       *identity.PublicProfile
}

// LogoutResult tells the transport whether to expire the renewal cookie.
type LogoutResult struct {
	ClearRenewalCookie bool
}
