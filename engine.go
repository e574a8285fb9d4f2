package backoffice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brightpixel/backoffice/internal/rate"
	"github.com/brightpixel/backoffice/jwt"
	"github.com/brightpixel/backoffice/password"
	"github.com/brightpixel/backoffice/session"
)

// Engine defines a public type used by backoffice APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config        Config
	sessionStore  *session.Store
	rateLimiter   *rate.Limiter
	audit         *auditDispatcher
	metrics       *Metrics
	passwordHash  *password.Hasher
	jwtManager    *jwt.Manager
	staffProvider StaffProvider
	dashboard     *Dashboard
	logger        *slog.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// SignIn describes the signin operation and its observable behavior.
//
// SignIn authenticates the credential pair and mints a session plus access
// token. It performs NO role gating: the caller composes the super-admin
// check on top, see [Engine.Login].
//
// SignIn may return an error when input validation, dependency calls, or security checks fail.
// SignIn does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SignIn(ctx context.Context, email, credential string) (SignInResult, error) {
	result, sessionID, err := e.signIn(ctx, email, credential)
	if err != nil {
		return SignInResult{}, err
	}
	e.emitLoginSuccess(ctx, email, result.StaffID, sessionID)
	return result, nil
}

// signIn is the shared credential-check-and-mint path. It increments the
// session-created metric but leaves the login-success emission to the
// caller, so a login denied by the role gate is never counted as a success.
func (e *Engine) signIn(ctx context.Context, email, credential string) (SignInResult, string, error) {
	ip := clientIPFromContext(ctx)
	if e.passwordHash == nil || e.jwtManager == nil || e.sessionStore == nil {
		return SignInResult{}, "", ErrEngineNotReady
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.Check(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
			return SignInResult{}, "", ErrLoginRateLimited
		}
	}

	if email == "" || credential == "" {
		return e.failSignIn(ctx, email, ip, "", "empty_credential")
	}

	staff, err := e.staffProvider.GetStaffByEmail(ctx, email)
	if err != nil {
		return e.failSignIn(ctx, email, ip, "", "staff_not_found")
	}

	ok, err := e.passwordHash.Verify(credential, staff.PasswordHash)
	if err != nil || !ok {
		return e.failSignIn(ctx, email, ip, staff.StaffID, "password_mismatch")
	}

	if staff.Status != StaffActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, staff.StaffID, "", ErrAccountInactive, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "account_status",
			}
		})
		return SignInResult{}, "", ErrAccountInactive
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.passwordHash.NeedsUpgrade(staff.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := e.passwordHash.Hash(credential); err == nil {
				// Rehash update is best-effort and must not block successful login.
				if err := e.staffProvider.UpdatePasswordHash(ctx, staff.StaffID, upgradedHash); err != nil {
					e.logger.Warn("password hash upgrade update failed", "staff_id", staff.StaffID)
				}
			} else {
				e.logger.Warn("password hash upgrade generation failed", "staff_id", staff.StaffID)
			}
		}
	}
	credential = ""

	now := time.Now()
	sessionID := uuid.NewString()
	sess := &session.Session{
		SessionID:      sessionID,
		StaffID:        staff.StaffID,
		Email:          staff.Email,
		IsSuperAdmin:   staff.IsSuperAdmin,
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
	}
	if e.config.Session.AbsoluteLifetime > 0 {
		sess.ExpiresAt = now.Add(e.config.Session.AbsoluteLifetime).Unix()
	}

	if err := e.sessionStore.Save(ctx, sess, e.config.Inactivity.Timeout); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, staff.StaffID, sessionID, ErrSessionCreationFailed, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "session_save_failed",
			}
		})
		return SignInResult{}, "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	token, err := e.jwtManager.CreateAccess(staff.StaffID, sessionID, staff.IsSuperAdmin)
	if err != nil {
		_ = e.sessionStore.Delete(ctx, sessionID)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, staff.StaffID, sessionID, ErrSessionCreationFailed, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "issue_access_failed",
			}
		})
		return SignInResult{}, "", fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	if e.rateLimiter != nil {
		// Limiter reset is best-effort and must not block successful login.
		if err := e.rateLimiter.Reset(ctx, email, ip); err != nil {
			e.logger.Warn("login limiter reset failed", "identifier", email)
		}
	}

	e.metricInc(MetricSessionCreated)
	return SignInResult{Token: token, StaffID: staff.StaffID}, sessionID, nil
}

func (e *Engine) emitLoginSuccess(ctx context.Context, email, staffID, sessionID string) {
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, staffID, sessionID, nil, func() map[string]string {
		return map[string]string{
			"identifier": email,
		}
	})
}

func (e *Engine) failSignIn(ctx context.Context, email, ip, staffID, reason string) (SignInResult, string, error) {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.RecordFailure(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, staffID, "", ErrLoginRateLimited, func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
			return SignInResult{}, "", ErrLoginRateLimited
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, staffID, "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{
			"identifier": email,
			"reason":     reason,
		}
	})
	return SignInResult{}, "", ErrInvalidCredentials
}

// GetRole describes the getrole operation and its observable behavior.
//
// GetRole may return an error when input validation, dependency calls, or security checks fail.
// GetRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetRole(ctx context.Context, staffID string) (RoleRecord, error) {
	if e == nil || e.staffProvider == nil {
		return RoleRecord{}, ErrEngineNotReady
	}
	return e.staffProvider.GetRole(ctx, staffID)
}

// Login describes the login operation and its observable behavior.
//
// Login composes [Engine.SignIn] with the super-admin role gate. A valid
// credential for a non-super-admin account gets its freshly minted session
// revoked before [ErrNotSuperAdmin] is returned, so no authenticated
// residue survives a denied login. The login-success metric and audit
// event are emitted only once the gate passes; a denied login is counted
// as login_denied alone.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, credential string) (string, *AuthResult, error) {
	result, sessionID, err := e.signIn(ctx, email, credential)
	if err != nil {
		return "", nil, err
	}

	role, err := e.staffProvider.GetRole(ctx, result.StaffID)
	if err != nil {
		e.revokeFresh(ctx, result.Token)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, result.StaffID, "", ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "role_lookup_failed",
			}
		})
		return "", nil, fmt.Errorf("%w: role lookup: %v", ErrBackendUnavailable, err)
	}

	if !role.IsActive {
		e.revokeFresh(ctx, result.Token)
		e.metricInc(MetricLoginDenied)
		e.emitAudit(ctx, auditEventLoginDenied, false, result.StaffID, "", ErrAccountInactive, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "account_inactive",
			}
		})
		return "", nil, ErrAccountInactive
	}

	if !role.IsSuperAdmin {
		e.revokeFresh(ctx, result.Token)
		e.metricInc(MetricLoginDenied)
		e.emitAudit(ctx, auditEventLoginDenied, false, result.StaffID, "", ErrNotSuperAdmin, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "not_super_admin",
			}
		})
		return "", nil, ErrNotSuperAdmin
	}

	e.emitLoginSuccess(ctx, email, result.StaffID, sessionID)

	return result.Token, &AuthResult{
		StaffID:      result.StaffID,
		Email:        email,
		SessionID:    sessionID,
		IsSuperAdmin: true,
	}, nil
}

// revokeFresh tears down a session minted moments ago by SignIn when the
// role gate denies the login. Best-effort: the session carries the absolute
// TTL either way.
func (e *Engine) revokeFresh(ctx context.Context, token string) {
	if err := e.SignOut(ctx, token); err != nil {
		e.logger.Warn("fresh session revoke failed", "error", err)
	}
}

// SignOut describes the signout operation and its observable behavior.
//
// SignOut may return an error when input validation, dependency calls, or security checks fail.
// SignOut does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SignOut(ctx context.Context, tokenStr string) error {
	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "invalid_access_token",
			}
		})
		return ErrTokenInvalid
	}

	err = e.sessionStore.Delete(ctx, claims.SID)
	if err == nil {
		e.metricInc(MetricLogout)
		e.metricInc(MetricSessionRevoked)
	}
	e.emitAudit(ctx, auditEventLogoutSession, err == nil, claims.StaffID, claims.SID, err, nil)
	return err
}

// LogoutAllForStaff describes the logoutallforstaff operation and its observable behavior.
//
// LogoutAllForStaff may return an error when input validation, dependency calls, or security checks fail.
// LogoutAllForStaff does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutAllForStaff(ctx context.Context, staffID string) error {
	err := e.sessionStore.DeleteAllForStaff(ctx, staffID)
	if err == nil {
		e.metricInc(MetricSessionRevoked)
	}
	e.emitAudit(ctx, auditEventLogoutAll, err == nil, staffID, "", err, nil)
	return err
}

// Validate describes the validate operation and its observable behavior.
//
// Validate is the hot path: every guarded request goes through it. One JWT
// parse plus one Redis GET; a token whose session is gone is rejected
// immediately, and a Redis outage fails closed.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, ErrUnauthorized
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, ErrUnauthorized
		}
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrSessionNotFound
	}

	if sess.StaffID != claims.StaffID {
		_ = e.sessionStore.Delete(ctx, claims.SID)
		e.metricInc(MetricValidateFailure)
		return nil, ErrSessionNotFound
	}

	e.metricInc(MetricValidateSuccess)
	return &AuthResult{
		StaffID:      sess.StaffID,
		Email:        sess.Email,
		SessionID:    sess.SessionID,
		IsSuperAdmin: sess.IsSuperAdmin,
	}, nil
}

// Touch describes the touch operation and its observable behavior.
//
// Touch records one activity event against the session behind the token:
// LastActivityAt moves to now and, with sliding expiration enabled, the
// idle TTL restarts. The admin UI calls this on interaction signals.
//
// Touch may return an error when input validation, dependency calls, or security checks fail.
// Touch does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Touch(ctx context.Context, tokenStr string) (*SessionInfo, error) {
	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := e.sessionStore.Touch(ctx, claims.SID, e.config.Inactivity.Timeout)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.metricInc(MetricSessionExpired)
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	e.metricInc(MetricSessionTouched)
	e.emitAudit(ctx, auditEventSessionTouched, true, sess.StaffID, sess.SessionID, nil, nil)
	return e.sessionInfo(sess), nil
}

// SessionInfo describes the sessioninfo operation and its observable behavior.
//
// SessionInfo is the read-only counterpart to [Engine.Touch]: it reports the
// session state without renewing the idle TTL or moving LastActivityAt.
//
// SessionInfo may return an error when input validation, dependency calls, or security checks fail.
// SessionInfo does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SessionInfo(ctx context.Context, tokenStr string) (*SessionInfo, error) {
	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, ErrUnauthorized
		}
		return nil, ErrSessionNotFound
	}

	return e.sessionInfo(sess), nil
}

func (e *Engine) sessionInfo(sess *session.Session) *SessionInfo {
	now := time.Now()
	idleDeadline := time.Unix(sess.LastActivityAt, 0).Add(e.config.Inactivity.Timeout)
	if sess.ExpiresAt > 0 {
		if abs := time.Unix(sess.ExpiresAt, 0); abs.Before(idleDeadline) {
			idleDeadline = abs
		}
	}
	remaining := idleDeadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	return &SessionInfo{
		SessionID:      sess.SessionID,
		StaffID:        sess.StaffID,
		Email:          sess.Email,
		IsSuperAdmin:   sess.IsSuperAdmin,
		CreatedAt:      time.Unix(sess.CreatedAt, 0),
		LastActivityAt: time.Unix(sess.LastActivityAt, 0),
		TimeRemaining:  remaining,
	}
}

// LoadDashboard describes the loaddashboard operation and its observable behavior.
//
// LoadDashboard may return an error when input validation, dependency calls, or security checks fail.
// LoadDashboard does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LoadDashboard(ctx context.Context) (*DashboardReport, error) {
	if e == nil || e.dashboard == nil {
		return nil, ErrEngineNotReady
	}

	report, err := e.dashboard.Load(ctx)
	if err != nil {
		e.metricInc(MetricDashboardFailure)
		e.emitAudit(ctx, auditEventDashboardFailure, false, "", "", err, nil)
		return nil, err
	}

	if len(report.Degraded) > 0 {
		e.metricInc(MetricDashboardDegraded)
		e.emitAudit(ctx, auditEventDashboardDegraded, true, "", "", ErrPartialAggregation, func() map[string]string {
			return map[string]string{
				"figures": fmt.Sprintf("%v", report.Degraded),
			}
		})
	} else {
		e.metricInc(MetricDashboardLoad)
		e.emitAudit(ctx, auditEventDashboardLoaded, true, "", "", nil, nil)
	}

	return report, nil
}

// Ping describes the ping operation and its observable behavior.
//
// Ping may return an error when input validation, dependency calls, or security checks fail.
// Ping does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	return e.sessionStore.Ping(ctx)
}
