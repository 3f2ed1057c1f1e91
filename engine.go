package roleAuth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/internal/flows"
	"github.com/MrEthical07/roleAuth/jwt"
	"github.com/MrEthical07/roleAuth/password"
)

// Engine runs login, request authentication, renewal and logout for
// supervisors and recruiters. It is immutable after [Builder.Build] and safe
// for concurrent use. It keeps no session cache; every check reads the store.
type Engine struct {
	config   Config
	store    identity.Store
	issuer   *jwt.Issuer
	verifier *password.Verifier
	deps     flows.Deps
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Metrics exposes the engine counters to exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot returns a copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// CookieConfig returns the renewal cookie settings.
func (e *Engine) CookieConfig() CookieConfig {
	return e.config.Cookie
}

// RenewalTTL returns the lifetime of recruiter renewal tokens.
func (e *Engine) RenewalTTL() time.Duration {
	return e.config.JWT.RenewalTTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.issuer != nil && e.verifier != nil
}

/*
====================================
LOGIN
====================================
*/

// Login authenticates an email and secret for the requested role.
//
// Unknown or deleted identities, wrong secrets and role mismatches all fail
// with [ErrInvalidCredentials]. Inactive or unapproved identities fail with
// [ErrIdentityInvalid]. A supervisor receives an access token only and the
// store is not written. A recruiter receives an access and renewal token and
// the renewal token replaces any previously stored one.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, req.Email, req.Secret, req.Role, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.metricInc(MetricLoginFailure)
		identityID := ""
		if res.Identity != nil {
			identityID = res.Identity.ID
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, identityID, string(req.Role), err, func() map[string]string {
			return map[string]string{"reason": res.Failure.String()}
		})
		e.logFailure("login failed", res.Failure, res.Err)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, res.Identity.ID, string(res.Identity.Role), nil, nil)

	return &LoginResult{
		Role:         res.Identity.Role,
		AccessToken:  res.Tokens.AccessToken,
		RenewalToken: res.Tokens.RenewalToken,
		Profile:      res.Identity.Public(),
	}, nil
}

/*
====================================
AUTHENTICATE
====================================
*/

// Authenticate verifies an extracted credential and returns the authorization
// context for the request. A bearer access token selects the supervisor
// branch and a renewal token selects the recruiter branch.
func (e *Engine) Authenticate(ctx context.Context, cred Credential) (*AuthContext, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAuthenticateLatency, e.now().Sub(start))
		}
	}()

	if cred.Kind == CredentialNone || strings.TrimSpace(cred.Token) == "" {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrNoCredential
	}
	proto, ok := protocolForCredential(cred.Kind)
	if !ok {
		e.metricInc(MetricAuthenticateFailure)
		return nil, ErrInvalidToken
	}

	res := proto.verify(ctx, cred.Token, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claimIdentity(res.Claims), string(proto.role()), err, func() map[string]string {
			return map[string]string{"credential": cred.Kind.String(), "reason": res.Failure.String()}
		})
		return nil, err
	}

	e.metricInc(MetricAuthenticateSuccess)
	return newAuthContext(res.Identity), nil
}

/*
====================================
RENEWAL
====================================
*/

// RefreshSupervisor exchanges a supervisor access token for a fresh one. The
// presented token may be expired, within the configured grace, but must
// otherwise verify. Failures other than expiry are [ErrInvalidToken].
func (e *Engine) RefreshSupervisor(ctx context.Context, accessToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if strings.TrimSpace(accessToken) == "" {
		e.metricInc(MetricSupervisorRefreshFailure)
		return "", ErrNoCredential
	}

	proto := supervisorProtocol{}
	res := proto.renew(ctx, accessToken, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.metricInc(MetricSupervisorRefreshFailure)
		e.emitAudit(ctx, auditEventSupervisorRefreshFailure, false, claimIdentity(res.Claims), string(proto.role()), err, nil)
		return "", err
	}

	e.metricInc(MetricSupervisorRefreshSuccess)
	e.emitAudit(ctx, auditEventSupervisorRefreshSuccess, true, res.Identity.ID, string(proto.role()), nil, nil)
	return res.Tokens.AccessToken, nil
}

// VerifyRecruiterSession checks a recruiter renewal token and returns the
// identity's public profile. It mints nothing.
func (e *Engine) VerifyRecruiterSession(ctx context.Context, renewalToken string) (*identity.PublicProfile, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(renewalToken) == "" {
		e.metricInc(MetricRecruiterVerifyFailure)
		return nil, ErrNoCredential
	}

	proto := recruiterProtocol{}
	res := proto.verify(ctx, renewalToken, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.metricInc(MetricRecruiterVerifyFailure)
		e.emitAudit(ctx, auditEventRecruiterVerifyFailure, false, claimIdentity(res.Claims), string(proto.role()), err, nil)
		return nil, err
	}

	e.metricInc(MetricRecruiterVerifySuccess)
	return res.Identity.Public(), nil
}

// RenewRecruiterSession verifies a recruiter renewal token like
// [Engine.VerifyRecruiterSession] and rotates it. The presented token stops
// verifying once the new one is stored.
func (e *Engine) RenewRecruiterSession(ctx context.Context, renewalToken string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if strings.TrimSpace(renewalToken) == "" {
		e.metricInc(MetricRecruiterRenewFailure)
		return nil, ErrNoCredential
	}

	proto := recruiterProtocol{}
	res := proto.renew(ctx, renewalToken, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.metricInc(MetricRecruiterRenewFailure)
		e.emitAudit(ctx, auditEventRecruiterRenewFailure, false, claimIdentity(res.Claims), string(proto.role()), err, nil)
		return nil, err
	}

	e.metricInc(MetricRecruiterRenewSuccess)
	e.emitAudit(ctx, auditEventRecruiterRenewSuccess, true, res.Identity.ID, string(proto.role()), nil, nil)
	return &LoginResult{
		Role:         res.Identity.Role,
		AccessToken:  res.Tokens.AccessToken,
		RenewalToken: res.Tokens.RenewalToken,
		Profile:      res.Identity.Public(),
	}, nil
}

/*
====================================
LOGOUT
====================================
*/

// Logout ends the session described by ac. Recruiters have their stored
// renewal token cleared; supervisors have no server-side state to clear.
func (e *Engine) Logout(ctx context.Context, ac *AuthContext) (LogoutResult, error) {
	if !e.ready() {
		return LogoutResult{}, ErrEngineNotReady
	}
	if ac == nil || ac.IdentityID == "" {
		return LogoutResult{}, ErrNoCredential
	}
	proto, ok := protocolFor(ac.Role)
	if !ok {
		return LogoutResult{}, ErrWrongRole
	}

	out, res := proto.logout(ctx, ac.IdentityID, e.deps)
	if res.Failure != flows.FailureNone {
		err := e.mapFailure(res.Failure, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, ac.IdentityID, string(proto.role()), err, nil)
		return LogoutResult{}, err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, ac.IdentityID, string(proto.role()), nil, nil)
	return out, nil
}

func (e *Engine) mapFailure(kind flows.FailureKind, cause error) error {
	switch kind {
	case flows.FailureInvalidCredentials:
		return ErrInvalidCredentials
	case flows.FailureIdentityInvalid:
		return ErrIdentityInvalid
	case flows.FailureInvalidToken:
		return ErrInvalidToken
	case flows.FailureTokenExpired:
		return ErrTokenExpired
	case flows.FailureRenewalExpired:
		return ErrRenewalExpired
	case flows.FailureWrongRole:
		return ErrWrongRole
	case flows.FailureStore:
		e.logger.Error("identity store failure", zap.Error(cause))
		return fmt.Errorf("%w: %v", ErrStore, cause)
	default:
		e.logger.Error("token issuance failure", zap.Error(cause))
		return fmt.Errorf("issue tokens: %v", cause)
	}
}

func (e *Engine) logFailure(msg string, kind flows.FailureKind, cause error) {
	if kind == flows.FailureStore || kind == flows.FailureIssue {
		return
	}
	fields := []zap.Field{zap.String("reason", kind.String())}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	e.logger.Debug(msg, fields...)
}

func newAuthContext(ident *identity.Identity) *AuthContext {
	return &AuthContext{
		IdentityID:     ident.ID,
		Email:          ident.Email,
		Role:           ident.Role,
		OrganizationID: ident.OrganizationID,
		Identity:       ident.Public(),
	}
}

func claimIdentity(c *jwt.Claims) string {
	if c == nil {
		return ""
	}
	return c.IdentityID
}
