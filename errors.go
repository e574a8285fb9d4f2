package backoffice

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the back-office engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the back-office engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStaffNotFound is an exported constant or variable used by the back-office engine.
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrNotSuperAdmin is an exported constant or variable used by the back-office engine.
	ErrNotSuperAdmin = errors.New("super admin role required")
	// ErrAccountInactive is an exported constant or variable used by the back-office engine.
	ErrAccountInactive = errors.New("account inactive")
	// ErrLoginRateLimited is an exported constant or variable used by the back-office engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInvalidConfig is an exported constant or variable used by the back-office engine.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBackendUnavailable is an exported constant or variable used by the back-office engine.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrPartialAggregation is an exported constant or variable used by the back-office engine.
	ErrPartialAggregation = errors.New("one or more optional dashboard reads failed")
	// ErrSessionNotFound is an exported constant or variable used by the back-office engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCreationFailed is an exported constant or variable used by the back-office engine.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrSessionInvalidationFailed is an exported constant or variable used by the back-office engine.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrTokenInvalid is an exported constant or variable used by the back-office engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrPasswordPolicy is an exported constant or variable used by the back-office engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is an exported constant or variable used by the back-office engine.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrAlreadyAuthenticated is an exported constant or variable used by the back-office engine.
	ErrAlreadyAuthenticated = errors.New("a session is already active")
	// ErrNotAuthenticated is an exported constant or variable used by the back-office engine.
	ErrNotAuthenticated = errors.New("no active session")
	// ErrEngineNotReady is an exported constant or variable used by the back-office engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
