package backoffice

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionState defines a public type used by backoffice APIs.
//
// SessionState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionState uint8

const (
	// StateAnonymous is an exported constant or variable used by the back-office engine.
	StateAnonymous SessionState = iota
	// StateAuthenticating is an exported constant or variable used by the back-office engine.
	StateAuthenticating
	// StateAuthenticated is an exported constant or variable used by the back-office engine.
	StateAuthenticated
	// StateExpired is an exported constant or variable used by the back-office engine.
	StateExpired
	// StateLoggedOut is an exported constant or variable used by the back-office engine.
	StateLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// SignInResult is returned by [Authenticator.SignIn] on success.
type SignInResult struct {
	Token   string
	StaffID string
}

// Authenticator is the remote sign-in collaborator. [Engine] satisfies it,
// and tests substitute stubs.
type Authenticator interface {
	SignIn(ctx context.Context, email, credential string) (SignInResult, error)
	SignOut(ctx context.Context, token string) error
}

// RoleRecord is the authorization lookup result for one staff member.
type RoleRecord struct {
	IsSuperAdmin bool
	IsActive     bool
}

// RoleLookup resolves a staff member's role after authentication succeeds.
type RoleLookup interface {
	GetRole(ctx context.Context, staffID string) (RoleRecord, error)
}

// CredentialStore is the persistent local token store. Writes are
// whole-value replacements; the lifecycle manager is the only writer.
type CredentialStore interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}

// LifecycleCallbacks carries the user-facing notifications the lifecycle
// manager emits. All fields are optional.
type LifecycleCallbacks struct {
	// OnWarning fires when the inactivity warning deadline elapses.
	OnWarning func(remaining time.Duration)
	// OnExtended fires when activity clears a previously shown warning.
	OnExtended func()
	// OnExpired fires after a forced inactivity logout, once local state
	// is already cleared.
	OnExpired func()
}

// LifecycleConfig configures a [Lifecycle]. Zero-value Inactivity selects
// the 30-minute/5-minute defaults; a nil Clock selects [SystemClock].
type LifecycleConfig struct {
	Inactivity InactivityConfig
	Signals    SignalSource
	Clock      Clock
	Callbacks  LifecycleCallbacks
}

// ClientSession is the local view of the authenticated admin context.
type ClientSession struct {
	StaffID      string
	IsSuperAdmin bool
	StartedAt    time.Time
}

// Lifecycle owns the client-side admin session state machine:
//
//	Anonymous -> Authenticating -> Authenticated -> Expired | LoggedOut
//
// with both terminal states returning to Anonymous. It holds the only
// reference to the stored credential and the only [Watchdog] for the
// session; at most one session is current per Lifecycle instance.
//
// Construct one Lifecycle at application start and pass it to consumers —
// it is explicit dependency injection, not ambient state.
type Lifecycle struct {
	mu sync.Mutex

	auth  Authenticator
	roles RoleLookup
	creds CredentialStore

	signals   SignalSource
	clock     Clock
	cfg       InactivityConfig
	callbacks LifecycleCallbacks

	state    SessionState
	lastEnd  SessionState
	session  *ClientSession
	watchdog *Watchdog
}

// NewLifecycle creates a [Lifecycle] in the Anonymous state.
func NewLifecycle(auth Authenticator, roles RoleLookup, creds CredentialStore, cfg LifecycleConfig) (*Lifecycle, error) {
	if auth == nil {
		return nil, fmt.Errorf("%w: authenticator required", ErrInvalidConfig)
	}
	if roles == nil {
		return nil, fmt.Errorf("%w: role lookup required", ErrInvalidConfig)
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: credential store required", ErrInvalidConfig)
	}
	if cfg.Inactivity.Timeout == 0 && cfg.Inactivity.WarningLead == 0 {
		cfg.Inactivity = InactivityConfig{
			Timeout:     DefaultInactivityTimeout,
			WarningLead: DefaultWarningLead,
		}
	}
	if err := cfg.Inactivity.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}

	return &Lifecycle{
		auth:      auth,
		roles:     roles,
		creds:     creds,
		signals:   cfg.Signals,
		clock:     cfg.Clock,
		cfg:       cfg.Inactivity,
		callbacks: cfg.Callbacks,
		state:     StateAnonymous,
	}, nil
}

// Login runs the two-step admin login: authenticate, then confirm the
// super-admin role. A valid credential with an insufficient role signs the
// fresh remote session back out and surfaces [ErrNotSuperAdmin] — an
// authorization failure, distinct from the authentication failure returned
// for bad credentials. On success the credential is stored, the session is
// created, and the activity watchdog starts.
//
// The role flag is read once here and trusted for the session's lifetime; a
// mid-session role revocation takes effect at the next login (server-side
// gates re-read the stored session independently).
func (l *Lifecycle) Login(ctx context.Context, email, credential string) error {
	l.mu.Lock()
	switch l.state {
	case StateAuthenticated:
		l.mu.Unlock()
		return ErrAlreadyAuthenticated
	case StateAuthenticating:
		l.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	l.state = StateAuthenticating
	l.mu.Unlock()

	result, err := l.auth.SignIn(ctx, email, credential)
	if err != nil {
		l.setState(StateAnonymous)
		return err
	}

	role, err := l.roles.GetRole(ctx, result.StaffID)
	if err != nil {
		l.revoke(ctx, result.Token)
		l.setState(StateAnonymous)
		return fmt.Errorf("%w: role lookup: %v", ErrBackendUnavailable, err)
	}
	if !role.IsActive {
		l.revoke(ctx, result.Token)
		l.setState(StateAnonymous)
		return ErrAccountInactive
	}
	if !role.IsSuperAdmin {
		l.revoke(ctx, result.Token)
		l.setState(StateAnonymous)
		return ErrNotSuperAdmin
	}

	if err := l.creds.Set(result.Token); err != nil {
		l.revoke(ctx, result.Token)
		l.setState(StateAnonymous)
		return fmt.Errorf("credential store: %w", err)
	}

	watchdog, err := NewWatchdog(l.cfg, l.clock, WatchdogCallbacks{
		OnWarning:  l.handleWarning,
		OnTimeout:  l.handleTimeout,
		OnExtended: l.handleExtended,
	})
	if err != nil {
		// Inactivity config was validated at construction; reaching this
		// means the Lifecycle was mutated out-of-band.
		l.creds.Clear()
		l.revoke(ctx, result.Token)
		l.setState(StateAnonymous)
		return err
	}

	l.mu.Lock()
	l.session = &ClientSession{
		StaffID:      result.StaffID,
		IsSuperAdmin: true,
		StartedAt:    l.clock.Now(),
	}
	l.state = StateAuthenticated
	l.watchdog = watchdog
	l.mu.Unlock()

	watchdog.Observe(l.signals)

	return nil
}

// Extend records one qualifying activity event, resetting both deadlines.
// It is a no-op outside the Authenticated state.
func (l *Lifecycle) Extend() {
	l.mu.Lock()
	watchdog := l.watchdog
	authenticated := l.state == StateAuthenticated
	l.mu.Unlock()

	if authenticated && watchdog != nil {
		watchdog.OnActivity()
	}
}

// Logout signs the remote session out and clears local state. Local logout
// always succeeds: the credential store and session are cleared before the
// remote call's outcome is known, and a remote fault is only reported back,
// never allowed to retain local state.
func (l *Lifecycle) Logout(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateAuthenticated {
		l.mu.Unlock()
		return ErrNotAuthenticated
	}

	token, _ := l.creds.Get()
	if l.watchdog != nil {
		l.watchdog.Stop()
		l.watchdog = nil
	}
	l.creds.Clear()
	l.session = nil
	l.lastEnd = StateLoggedOut
	l.state = StateAnonymous
	l.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := l.auth.SignOut(ctx, token); err != nil {
		return fmt.Errorf("remote sign-out: %w", err)
	}
	return nil
}

// State returns the current state. Terminal states are transient: after an
// expiry or logout completes the machine reads Anonymous, with the terminal
// reason available from [Lifecycle.LastEnd].
func (l *Lifecycle) State() SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastEnd reports how the most recent session ended: [StateExpired],
// [StateLoggedOut], or [StateAnonymous] when no session has ended yet.
func (l *Lifecycle) LastEnd() SessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastEnd
}

// CurrentSession returns a copy of the active session, or nil.
func (l *Lifecycle) CurrentSession() *ClientSession {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.session == nil {
		return nil
	}
	copied := *l.session
	return &copied
}

// TimeRemaining reports the time until forced logout, zero when no session
// is active.
func (l *Lifecycle) TimeRemaining() time.Duration {
	l.mu.Lock()
	watchdog := l.watchdog
	l.mu.Unlock()

	if watchdog == nil {
		return 0
	}
	return watchdog.TimeRemaining()
}

func (l *Lifecycle) handleWarning(remaining time.Duration) {
	if l.callbacks.OnWarning != nil {
		l.callbacks.OnWarning(remaining)
	}
}

func (l *Lifecycle) handleExtended() {
	if l.callbacks.OnExtended != nil {
		l.callbacks.OnExtended()
	}
}

func (l *Lifecycle) handleTimeout() {
	l.mu.Lock()
	if l.state != StateAuthenticated {
		l.mu.Unlock()
		return
	}
	l.creds.Clear()
	l.session = nil
	l.watchdog = nil
	l.lastEnd = StateExpired
	l.state = StateAnonymous
	cb := l.callbacks.OnExpired
	l.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (l *Lifecycle) setState(s SessionState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// revoke signs a just-created remote session back out. Used on the login
// path when the role gate rejects an otherwise valid credential; a failure
// here leaves a remote session bounded by the server-side TTL, so it is
// deliberately not propagated over the primary error.
func (l *Lifecycle) revoke(ctx context.Context, token string) {
	_ = l.auth.SignOut(ctx, token)
	_ = l.creds.Clear()
}
