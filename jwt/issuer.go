package jwt

import (
	"crypto/subtle"
	"errors"
)

// TokenPair holds an access token and its companion renewal token.
type TokenPair struct {
	AccessToken  string
	RenewalToken string
}

// Issuer mints access and renewal tokens from two independent managers.
type Issuer struct {
	access  *Manager
	renewal *Manager
}

// NewIssuer pairs an access manager with a renewal manager. The two must be
// configured for their own class and must not share a signing secret, so a
// token of one class can never verify as the other.
func NewIssuer(access, renewal *Manager) (*Issuer, error) {
	if access == nil || renewal == nil {
		return nil, errors.New("issuer requires access and renewal managers")
	}
	if access.Use() != UseAccess {
		return nil, errors.New("access manager must be configured for access tokens")
	}
	if renewal.Use() != UseRenewal {
		return nil, errors.New("renewal manager must be configured for renewal tokens")
	}
	if subtle.ConstantTimeCompare(access.config.Secret, renewal.config.Secret) == 1 {
		return nil, errors.New("access and renewal tokens must use distinct signing secrets")
	}

	return &Issuer{access: access, renewal: renewal}, nil
}

// IssueTokens mints both tokens for p. It has no side effects; persisting the
// renewal token is the caller's job.
func (i *Issuer) IssueTokens(p Principal) (TokenPair, error) {
	access, err := i.access.Issue(p)
	if err != nil {
		return TokenPair{}, err
	}
	renewal, err := i.renewal.Issue(p)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RenewalToken: renewal}, nil
}

// IssueAccess mints an access token only.
func (i *Issuer) IssueAccess(p Principal) (string, error) {
	return i.access.Issue(p)
}

// Access returns the access-token manager.
func (i *Issuer) Access() *Manager {
	return i.access
}

// Renewal returns the renewal-token manager.
func (i *Issuer) Renewal() *Manager {
	return i.renewal
}
