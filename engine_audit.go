package roleAuth

import (
	"context"
	"strings"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventAuthenticateFailure      = "authenticate_failure"
	auditEventSupervisorRefreshSuccess = "supervisor_refresh_success"
	auditEventSupervisorRefreshFailure = "supervisor_refresh_failure"
	auditEventRecruiterVerifyFailure   = "recruiter_verify_failure"
	auditEventRecruiterRenewSuccess    = "recruiter_renew_success"
	auditEventRecruiterRenewFailure    = "recruiter_renew_failure"
	auditEventLogout                   = "logout"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identityID string,
	role string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		IdentityID: identityID,
		Role:       role,
		Success:    success,
		Metadata:   metadata,
	}
	if err != nil {
		event.Error = auditErrorCode(err)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode reuses the transport code table so audit consumers and API
// clients see the same vocabulary.
func auditErrorCode(err error) string {
	return strings.ToLower(ErrorCode(err))
}
