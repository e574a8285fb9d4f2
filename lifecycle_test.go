package backoffice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubAuthenticator struct {
	mu         sync.Mutex
	result     SignInResult
	signInErr  error
	signOutErr error
	signedOut  []string
}

func (a *stubAuthenticator) SignIn(context.Context, string, string) (SignInResult, error) {
	if a.signInErr != nil {
		return SignInResult{}, a.signInErr
	}
	return a.result, nil
}

func (a *stubAuthenticator) SignOut(_ context.Context, token string) error {
	a.mu.Lock()
	a.signedOut = append(a.signedOut, token)
	a.mu.Unlock()
	return a.signOutErr
}

func (a *stubAuthenticator) revoked() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string{}, a.signedOut...)
}

type stubRoleLookup struct {
	role RoleRecord
	err  error
}

func (r *stubRoleLookup) GetRole(context.Context, string) (RoleRecord, error) {
	if r.err != nil {
		return RoleRecord{}, r.err
	}
	return r.role, nil
}

type memCredentialStore struct {
	mu     sync.Mutex
	token  string
	ok     bool
	setErr error
}

func (s *memCredentialStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.ok
}

func (s *memCredentialStore) Set(token string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	s.token = token
	s.ok = true
	s.mu.Unlock()
	return nil
}

func (s *memCredentialStore) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.ok = false
	s.mu.Unlock()
	return nil
}

type lifecycleFixture struct {
	auth  *stubAuthenticator
	roles *stubRoleLookup
	creds *memCredentialStore
	clock *fakeClock
	rec   *watchdogRecorder

	expired int
	mu      sync.Mutex
}

func newLifecycleFixture(t *testing.T) (*Lifecycle, *lifecycleFixture) {
	t.Helper()

	fx := &lifecycleFixture{
		auth:  &stubAuthenticator{result: SignInResult{Token: "token-1", StaffID: "staff-1"}},
		roles: &stubRoleLookup{role: RoleRecord{IsSuperAdmin: true, IsActive: true}},
		creds: &memCredentialStore{},
		clock: newFakeClock(),
		rec:   &watchdogRecorder{},
	}

	callbacks := fx.rec.callbacks()
	lc, err := NewLifecycle(fx.auth, fx.roles, fx.creds, LifecycleConfig{
		Clock: fx.clock,
		Callbacks: LifecycleCallbacks{
			OnWarning:  callbacks.OnWarning,
			OnExtended: callbacks.OnExtended,
			OnExpired: func() {
				fx.mu.Lock()
				fx.expired++
				fx.mu.Unlock()
			},
		},
	})
	if err != nil {
		t.Fatalf("NewLifecycle error: %v", err)
	}
	return lc, fx
}

func (fx *lifecycleFixture) expiredCount() int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.expired
}

func TestLifecycleLoginSuccess(t *testing.T) {
	lc, fx := newLifecycleFixture(t)

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if got := lc.State(); got != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", got)
	}

	sess := lc.CurrentSession()
	if sess == nil || sess.StaffID != "staff-1" || !sess.IsSuperAdmin {
		t.Fatalf("unexpected session: %+v", sess)
	}

	token, ok := fx.creds.Get()
	if !ok || token != "token-1" {
		t.Fatalf("expected stored credential token-1, got %q ok=%v", token, ok)
	}

	if remaining := lc.TimeRemaining(); remaining != DefaultInactivityTimeout {
		t.Fatalf("expected full timeout remaining, got %v", remaining)
	}
}

func TestLifecycleLoginAuthenticationFailure(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.auth.signInErr = ErrInvalidCredentials

	err := lc.Login(context.Background(), "admin@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state after failure, got %v", got)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected no stored credential after failed login")
	}
	if revoked := fx.auth.revoked(); len(revoked) != 0 {
		t.Fatalf("nothing to revoke on authentication failure, got %v", revoked)
	}
}

func TestLifecycleLoginNonSuperAdminRevokesFreshSession(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.roles.role = RoleRecord{IsSuperAdmin: false, IsActive: true}

	err := lc.Login(context.Background(), "member@example.com", "valid-password")
	if !errors.Is(err, ErrNotSuperAdmin) {
		t.Fatalf("expected ErrNotSuperAdmin, got %v", err)
	}

	revoked := fx.auth.revoked()
	if len(revoked) != 1 || revoked[0] != "token-1" {
		t.Fatalf("expected the fresh token revoked, got %v", revoked)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected no residual credential after role denial")
	}
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state after denial, got %v", got)
	}
	if lc.CurrentSession() != nil {
		t.Fatal("expected no session after role denial")
	}
}

func TestLifecycleLoginInactiveAccountRevokesFreshSession(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.roles.role = RoleRecord{IsSuperAdmin: true, IsActive: false}

	err := lc.Login(context.Background(), "gone@example.com", "valid-password")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if revoked := fx.auth.revoked(); len(revoked) != 1 {
		t.Fatalf("expected one revocation, got %v", revoked)
	}
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state, got %v", got)
	}
}

func TestLifecycleLoginRoleLookupFailure(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.roles.err = errors.New("database timeout")

	err := lc.Login(context.Background(), "admin@example.com", "valid-password")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if revoked := fx.auth.revoked(); len(revoked) != 1 {
		t.Fatalf("expected the fresh token revoked on lookup failure, got %v", revoked)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected no residual credential after lookup failure")
	}
}

func TestLifecycleLoginWhileAuthenticated(t *testing.T) {
	lc, _ := newLifecycleFixture(t)

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("first Login error: %v", err)
	}
	if err := lc.Login(context.Background(), "admin@example.com", "secret"); !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}
}

func TestLifecycleCredentialStoreFailureRevokes(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.creds.setErr = errors.New("disk full")

	err := lc.Login(context.Background(), "admin@example.com", "secret")
	if err == nil || !strings.Contains(err.Error(), "credential store") {
		t.Fatalf("expected credential store error, got %v", err)
	}
	if revoked := fx.auth.revoked(); len(revoked) != 1 {
		t.Fatalf("expected the fresh token revoked, got %v", revoked)
	}
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state, got %v", got)
	}
}

func TestLifecycleLogout(t *testing.T) {
	lc, fx := newLifecycleFixture(t)

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if err := lc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state after logout, got %v", got)
	}
	if got := lc.LastEnd(); got != StateLoggedOut {
		t.Fatalf("expected LastEnd logged_out, got %v", got)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected credential cleared on logout")
	}
	if revoked := fx.auth.revoked(); len(revoked) != 1 || revoked[0] != "token-1" {
		t.Fatalf("expected remote sign-out of token-1, got %v", revoked)
	}
}

func TestLifecycleLogoutLocalAlwaysSucceeds(t *testing.T) {
	lc, fx := newLifecycleFixture(t)
	fx.auth.signOutErr = errors.New("server unreachable")

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	err := lc.Logout(context.Background())
	if err == nil || !strings.Contains(err.Error(), "remote sign-out") {
		t.Fatalf("expected wrapped remote sign-out error, got %v", err)
	}

	// Local state is gone regardless of the remote outcome.
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state despite remote failure, got %v", got)
	}
	if got := lc.LastEnd(); got != StateLoggedOut {
		t.Fatalf("expected LastEnd logged_out, got %v", got)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected credential cleared despite remote failure")
	}
	if lc.CurrentSession() != nil {
		t.Fatal("expected no session despite remote failure")
	}
}

func TestLifecycleLogoutWhenAnonymous(t *testing.T) {
	lc, _ := newLifecycleFixture(t)

	if err := lc.Logout(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestLifecycleInactivityWarningThenForcedLogout(t *testing.T) {
	lc, fx := newLifecycleFixture(t)

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	fx.clock.Advance(1500 * time.Second)
	warnings, _, _ := fx.rec.snapshot()
	if len(warnings) != 1 || warnings[0] != 300*time.Second {
		t.Fatalf("expected one warning with 300s remaining, got %v", warnings)
	}
	if got := lc.State(); got != StateAuthenticated {
		t.Fatalf("expected still authenticated at warning, got %v", got)
	}

	fx.clock.Advance(300 * time.Second)
	if got := fx.expiredCount(); got != 1 {
		t.Fatalf("expected one OnExpired call, got %d", got)
	}
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state after expiry, got %v", got)
	}
	if got := lc.LastEnd(); got != StateExpired {
		t.Fatalf("expected LastEnd expired, got %v", got)
	}
	if _, ok := fx.creds.Get(); ok {
		t.Fatal("expected credential cleared on forced logout")
	}
	if lc.CurrentSession() != nil {
		t.Fatal("expected no session after forced logout")
	}
	if remaining := lc.TimeRemaining(); remaining != 0 {
		t.Fatalf("expected zero remaining after expiry, got %v", remaining)
	}
}

func TestLifecycleExtendClearsWarning(t *testing.T) {
	lc, fx := newLifecycleFixture(t)

	if err := lc.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login error: %v", err)
	}

	fx.clock.Advance(1500 * time.Second)
	lc.Extend()

	if _, _, extended := fx.rec.snapshot(); extended != 1 {
		t.Fatalf("expected OnExtended after activity past warning, got %d", extended)
	}
	if remaining := lc.TimeRemaining(); remaining != DefaultInactivityTimeout {
		t.Fatalf("expected full timeout after extend, got %v", remaining)
	}

	// The extended session survives past the original deadline.
	fx.clock.Advance(400 * time.Second)
	if got := lc.State(); got != StateAuthenticated {
		t.Fatalf("expected still authenticated after extend, got %v", got)
	}
	if got := fx.expiredCount(); got != 0 {
		t.Fatalf("expected no expiry after extend, got %d", got)
	}
}

func TestLifecycleExtendOutsideAuthenticatedIsNoOp(t *testing.T) {
	lc, _ := newLifecycleFixture(t)

	lc.Extend()
	if got := lc.State(); got != StateAnonymous {
		t.Fatalf("expected anonymous state, got %v", got)
	}
	if remaining := lc.TimeRemaining(); remaining != 0 {
		t.Fatalf("expected zero remaining, got %v", remaining)
	}
}

func TestNewLifecycleRequiresCollaborators(t *testing.T) {
	auth := &stubAuthenticator{}
	roles := &stubRoleLookup{}
	creds := &memCredentialStore{}

	if _, err := NewLifecycle(nil, roles, creds, LifecycleConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil authenticator, got %v", err)
	}
	if _, err := NewLifecycle(auth, nil, creds, LifecycleConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil role lookup, got %v", err)
	}
	if _, err := NewLifecycle(auth, roles, nil, LifecycleConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for nil credential store, got %v", err)
	}
	if _, err := NewLifecycle(auth, roles, creds, LifecycleConfig{
		Inactivity: InactivityConfig{Timeout: time.Minute, WarningLead: time.Minute},
	}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for lead >= timeout, got %v", err)
	}
}
