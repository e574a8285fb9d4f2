package backoffice

import (
	"context"
	"errors"
)

// ChangePassword describes the changepassword operation and its observable behavior.
//
// A successful change revokes every session the staff member holds; a
// revocation failure surfaces as [ErrSessionInvalidationFailed] joined with
// the cause, because a password change that leaves old sessions alive is
// not a success.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, staffID, oldPassword, newPassword string) error {
	if e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if staffID == "" || oldPassword == "" || newPassword == "" {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "invalid_input",
			}
		})
		return ErrPasswordPolicy
	}
	if len(newPassword) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "below_min_length",
			}
		})
		return ErrPasswordPolicy
	}

	staff, err := e.staffProvider.GetStaffByID(ctx, staffID)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrStaffNotFound, func() map[string]string {
			return map[string]string{
				"reason": "staff_not_found",
			}
		})
		return ErrStaffNotFound
	}
	if staff.Status != StaffActive {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrAccountInactive, func() map[string]string {
			return map[string]string{
				"reason": "account_status",
			}
		})
		return ErrAccountInactive
	}

	oldOK, err := e.passwordHash.Verify(oldPassword, staff.PasswordHash)
	if err != nil || !oldOK {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalid, false, staffID, "", ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	samePassword, err := e.passwordHash.Verify(newPassword, staff.PasswordHash)
	if err == nil && samePassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, staffID, "", ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "hash_policy",
			}
		})
		return ErrPasswordPolicy
	}

	if err := e.staffProvider.UpdatePasswordHash(ctx, staffID, newHash); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "update_hash_failed",
			}
		})
		return err
	}

	if err := e.LogoutAllForStaff(ctx, staffID); err != nil {
		e.logger.Warn("session invalidation failed after password change", "staff_id", staffID)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, staffID, "", ErrSessionInvalidationFailed, func() map[string]string {
			return map[string]string{
				"reason": "session_invalidation_failed",
			}
		})
		return errors.Join(ErrSessionInvalidationFailed, err)
	}

	if e.rateLimiter != nil {
		// Limiter reset is best-effort and must not block successful password change.
		if err := e.rateLimiter.Reset(ctx, staff.Email, clientIPFromContext(ctx)); err != nil {
			e.logger.Warn("login limiter reset failed after password change", "staff_id", staffID)
		}
	}

	oldPassword = ""
	newPassword = ""
	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, staffID, "", nil, nil)

	return nil
}
