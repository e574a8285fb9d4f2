package backoffice

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginDenied           = "login_denied"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventSessionTouched        = "session_touched"
	auditEventLogoutSession         = "logout_session"
	auditEventLogoutAll             = "logout_all"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeInvalid = "password_change_invalid_old"
	auditEventPasswordChangeReuse   = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventDashboardLoaded       = "dashboard_loaded"
	auditEventDashboardDegraded     = "dashboard_degraded"
	auditEventDashboardFailure      = "dashboard_failure"
)

// AuditErrorCode defines a public type used by backoffice APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorized        AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrNotSuperAdmin       AuditErrorCode = "not_super_admin"
	auditErrAccountInactive     AuditErrorCode = "account_inactive"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrStaffNotFound       AuditErrorCode = "staff_not_found"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrInvalidToken        AuditErrorCode = "invalid_token"
	auditErrPasswordPolicy      AuditErrorCode = "password_policy"
	auditErrPasswordReuse       AuditErrorCode = "password_reuse"
	auditErrSessionCreation     AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation AuditErrorCode = "session_invalidation_failed"
	auditErrUnavailable         AuditErrorCode = "backend_unavailable"
	auditErrPartialAggregation  AuditErrorCode = "partial_aggregation"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	staffID string,
	sessionID string,
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
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		StaffID:   staffID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrNotSuperAdmin):
		return auditErrNotSuperAdmin
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStaffNotFound):
		return auditErrStaffNotFound
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreation
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrPartialAggregation):
		return auditErrPartialAggregation
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
