package backoffice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/brightpixel/backoffice/password"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// engineTestConfig keeps argon2 at the cheapest parameters Validate accepts
// so password hashing does not dominate test runtime.
func engineTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("unit-test-signing-key-material")
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   10,
	}
	return cfg
}

func newTestHasher(t *testing.T, cfg Config) *password.Hasher {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return hasher
}

type memStaffProvider struct {
	mu      sync.RWMutex
	byID    map[string]StaffRecord
	byEmail map[string]string
	roleErr error
}

func newMemStaffProvider() *memStaffProvider {
	return &memStaffProvider{
		byID:    make(map[string]StaffRecord),
		byEmail: make(map[string]string),
	}
}

func (p *memStaffProvider) put(s StaffRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[s.StaffID] = s
	p.byEmail[s.Email] = s.StaffID
}

func (p *memStaffProvider) GetStaffByEmail(_ context.Context, email string) (StaffRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.byEmail[email]
	if !ok {
		return StaffRecord{}, ErrStaffNotFound
	}
	return p.byID[id], nil
}

func (p *memStaffProvider) GetStaffByID(_ context.Context, staffID string) (StaffRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.byID[staffID]
	if !ok {
		return StaffRecord{}, ErrStaffNotFound
	}
	return s, nil
}

func (p *memStaffProvider) GetRole(_ context.Context, staffID string) (RoleRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.roleErr != nil {
		return RoleRecord{}, p.roleErr
	}
	s, ok := p.byID[staffID]
	if !ok {
		return RoleRecord{}, ErrStaffNotFound
	}
	return RoleRecord{
		IsSuperAdmin: s.IsSuperAdmin,
		IsActive:     s.Status == StaffActive,
	}, nil
}

func (p *memStaffProvider) UpdatePasswordHash(_ context.Context, staffID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.byID[staffID]
	if !ok {
		return ErrStaffNotFound
	}
	s.PasswordHash = newHash
	p.byID[staffID] = s
	return nil
}

const testAdminPassword = "correct-horse-battery"

// seedStaff adds one active super-admin and one active regular staff member.
func seedStaff(t *testing.T, provider *memStaffProvider, cfg Config) {
	t.Helper()

	hash, err := newTestHasher(t, cfg).Hash(testAdminPassword)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	provider.put(StaffRecord{
		StaffID:      "staff-admin",
		Email:        "admin@example.com",
		DisplayName:  "Admin",
		PasswordHash: hash,
		IsSuperAdmin: true,
		Status:       StaffActive,
	})
	provider.put(StaffRecord{
		StaffID:      "staff-member",
		Email:        "member@example.com",
		DisplayName:  "Member",
		PasswordHash: hash,
		IsSuperAdmin: false,
		Status:       StaffActive,
	})
}

func buildTestEngine(t *testing.T, cfg Config, provider StaffProvider, sink AuditSink) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithStaffProvider(provider)
	if sink != nil {
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mr
}

func TestEngineLoginSuccessAndValidate(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	token, res, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty access token")
	}
	if res.StaffID != "staff-admin" || !res.IsSuperAdmin || res.SessionID == "" {
		t.Fatalf("unexpected auth result: %+v", res)
	}

	validated, err := engine.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if validated.StaffID != "staff-admin" || validated.SessionID != res.SessionID {
		t.Fatalf("unexpected validate result: %+v", validated)
	}
	if validated.Email != "admin@example.com" {
		t.Fatalf("expected email carried in session, got %q", validated.Email)
	}
}

func TestEngineLoginWrongPassword(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	_, _, err := engine.Login(context.Background(), "admin@example.com", "wrong-password-123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestEngineLoginUnknownEmailSameError(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	// Account enumeration resistance: unknown email and wrong password are
	// indistinguishable.
	_, _, err := engine.Login(context.Background(), "nobody@example.com", "whatever-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestEngineLoginNonSuperAdminLeavesNoResidue(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, mr := buildTestEngine(t, cfg, provider, nil)

	token, res, err := engine.Login(context.Background(), "member@example.com", testAdminPassword)
	if !errors.Is(err, ErrNotSuperAdmin) {
		t.Fatalf("expected ErrNotSuperAdmin, got %v", err)
	}
	if token != "" || res != nil {
		t.Fatalf("expected empty result on denial, got token=%q res=%+v", token, res)
	}

	// The fresh session minted during authentication must be revoked:
	// nothing may remain in Redis after a denied login.
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected no residual Redis keys after denial, got %v", keys)
	}
}

func TestEngineLoginInactiveAccount(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)

	inactive, _ := provider.GetStaffByID(context.Background(), "staff-admin")
	inactive.Status = StaffInactive
	provider.put(inactive)

	engine, _ := buildTestEngine(t, cfg, provider, nil)

	_, _, err := engine.Login(context.Background(), "admin@example.com", testAdminPassword)
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestEngineLoginRoleLookupFailureRevokes(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, mr := buildTestEngine(t, cfg, provider, nil)

	provider.roleErr = errors.New("replica lag")

	_, _, err := engine.Login(context.Background(), "admin@example.com", testAdminPassword)
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("expected no residual Redis keys, got %v", keys)
	}
}

func TestEngineSignOutRevokesSession(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	token, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if err := engine.SignOut(ctx, token); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}

	// The JWT is still within its TTL; the dead session must reject it.
	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after sign-out, got %v", err)
	}
}

func TestEngineSignOutGarbageToken(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	if err := engine.SignOut(context.Background(), "not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestEngineTouchSlidesIdleTTL(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Inactivity = InactivityConfig{Timeout: 10 * time.Second, WarningLead: 2 * time.Second}
	cfg.Session.AbsoluteLifetime = 0
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, mr := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	token, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	mr.FastForward(6 * time.Second)
	info, err := engine.Touch(ctx, token)
	if err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if info.TimeRemaining <= 0 || info.TimeRemaining > 10*time.Second {
		t.Fatalf("unexpected remaining after touch: %v", info.TimeRemaining)
	}

	// Without the touch the session would have expired at t=10s.
	mr.FastForward(6 * time.Second)
	if _, err := engine.Validate(ctx, token); err != nil {
		t.Fatalf("expected touched session to survive, got %v", err)
	}

	mr.FastForward(11 * time.Second)
	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after idle expiry, got %v", err)
	}
	if _, err := engine.Touch(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound touching expired session, got %v", err)
	}
}

func TestEngineSessionInfoDoesNotRenewTTL(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Inactivity = InactivityConfig{Timeout: 10 * time.Second, WarningLead: 2 * time.Second}
	cfg.Session.AbsoluteLifetime = 0
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, mr := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	token, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	mr.FastForward(6 * time.Second)
	info, err := engine.SessionInfo(ctx, token)
	if err != nil {
		t.Fatalf("SessionInfo error: %v", err)
	}
	if info.StaffID != "staff-admin" {
		t.Fatalf("unexpected session info: %+v", info)
	}

	// A read-only view must not have slid the idle TTL.
	mr.FastForward(5 * time.Second)
	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session expired despite SessionInfo read, got %v", err)
	}
}

func TestEngineLoginRateLimited(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Security.MaxLoginAttempts = 2
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	for i := 0; i < 2; i++ {
		_, _, err := engine.Login(ctx, "admin@example.com", "wrong-password-123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// The third failure exhausts the budget.
	if _, _, err := engine.Login(ctx, "admin@example.com", "wrong-password-123"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited on third failure, got %v", err)
	}

	// Even the correct password is locked out until the window ends.
	if _, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited with correct password, got %v", err)
	}
}

func TestEngineSuccessfulLoginResetsThrottle(t *testing.T) {
	cfg := engineTestConfig()
	cfg.Security.MaxLoginAttempts = 3
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	for i := 0; i < 2; i++ {
		_, _, _ = engine.Login(ctx, "admin@example.com", "wrong-password-123")
	}
	if _, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword); err != nil {
		t.Fatalf("expected login within budget to succeed, got %v", err)
	}

	// The reset gives a fresh budget.
	for i := 0; i < 3; i++ {
		_, _, err := engine.Login(ctx, "admin@example.com", "wrong-password-123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d after reset: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
}

func TestEngineChangePasswordRevokesAllSessions(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	tokenA, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("first Login error: %v", err)
	}
	tokenB, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("second Login error: %v", err)
	}

	const newPassword = "brand-new-secret-42"
	if err := engine.ChangePassword(ctx, "staff-admin", testAdminPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	for i, token := range []string{tokenA, tokenB} {
		if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("session %d: expected ErrSessionNotFound after password change, got %v", i, err)
		}
	}

	if _, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, _, err := engine.Login(ctx, "admin@example.com", newPassword); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
}

func TestEngineChangePasswordRejections(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	if err := engine.ChangePassword(ctx, "staff-admin", "wrong-old-pass", "brand-new-secret-42"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}
	if err := engine.ChangePassword(ctx, "staff-admin", testAdminPassword, testAdminPassword); !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("expected ErrPasswordReuse, got %v", err)
	}
	if err := engine.ChangePassword(ctx, "staff-admin", testAdminPassword, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy for short password, got %v", err)
	}
	if err := engine.ChangePassword(ctx, "staff-missing", testAdminPassword, "brand-new-secret-42"); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
}

func TestEngineValidateGarbageToken(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	if _, err := engine.Validate(context.Background(), "garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEngineValidateFailsClosedOnRedisOutage(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, mr := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	token, _, err := engine.Login(ctx, "admin@example.com", testAdminPassword)
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	mr.SetError("redis is down")
	defer mr.SetError("")

	if _, err := engine.Validate(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected fail-closed ErrUnauthorized, got %v", err)
	}
}

func TestEngineMetricsObserveLoginOutcomes(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)
	ctx := context.Background()

	_, _, _ = engine.Login(ctx, "admin@example.com", testAdminPassword)
	_, _, _ = engine.Login(ctx, "admin@example.com", "wrong-password-123")
	_, _, _ = engine.Login(ctx, "member@example.com", testAdminPassword)

	snap := engine.MetricsSnapshot()
	if snap["login_success"] != 1 {
		t.Fatalf("expected 1 login_success, got %d", snap["login_success"])
	}
	if snap["login_failure"] != 1 {
		t.Fatalf("expected 1 login_failure, got %d", snap["login_failure"])
	}
	if snap["login_denied"] != 1 {
		t.Fatalf("expected 1 login_denied, got %d", snap["login_denied"])
	}
	if snap["session_created"] != 2 {
		t.Fatalf("expected 2 session_created (one later revoked), got %d", snap["session_created"])
	}
}

func TestEngineDeniedLoginNotCountedAsSuccess(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	// Valid credential, non-super-admin: the session is minted then revoked
	// by the role gate, and only login_denied may be counted.
	if _, _, err := engine.Login(context.Background(), "member@example.com", testAdminPassword); !errors.Is(err, ErrNotSuperAdmin) {
		t.Fatalf("expected ErrNotSuperAdmin, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap["login_success"] != 0 {
		t.Fatalf("expected 0 login_success after denied login, got %d", snap["login_success"])
	}
	if snap["login_denied"] != 1 {
		t.Fatalf("expected 1 login_denied, got %d", snap["login_denied"])
	}
	if snap["session_created"] != 1 {
		t.Fatalf("expected 1 session_created, got %d", snap["session_created"])
	}
}

func TestEnginePing(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()
	seedStaff(t, provider, cfg)
	engine, _ := buildTestEngine(t, cfg, provider, nil)

	if _, err := engine.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
}

func TestBuilderValidation(t *testing.T) {
	cfg := engineTestConfig()
	provider := newMemStaffProvider()

	if _, err := New().WithConfig(cfg).WithStaffProvider(provider).Build(); err == nil {
		t.Fatal("expected Build to fail without Redis")
	}

	_, rdb := newTestRedis(t)
	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected Build to fail without staff provider")
	}

	badCfg := cfg
	badCfg.JWT.PrivateKey = nil
	if _, err := New().WithConfig(badCfg).WithRedis(rdb).WithStaffProvider(provider).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without signing key, got %v", err)
	}

	builder := New().WithConfig(cfg).WithRedis(rdb).WithStaffProvider(provider)
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected second Build on the same builder to fail")
	}
}
