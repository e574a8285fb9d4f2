package backoffice

import (
	"fmt"
	"time"
)

// Config defines a public type used by backoffice APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Session    SessionConfig
	Inactivity InactivityConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	Security   SecurityConfig
	Dashboard  DashboardConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by backoffice APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by backoffice APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix       string
	SlidingExpiration bool
	// AbsoluteLifetime caps a session regardless of activity. Zero disables
	// the cap and leaves only the idle timeout.
	AbsoluteLifetime time.Duration
}

/*
====================================
INACTIVITY CONFIG
====================================
*/

// InactivityConfig controls the idle timeout shared by the server-side
// session store and the client-side [Watchdog]: a session ends after
// Timeout without activity, and a warning is emitted WarningLead before
// that deadline.
type InactivityConfig struct {
	Timeout     time.Duration
	WarningLead time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by backoffice APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

// AuditConfig defines a public type used by backoffice APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by backoffice APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by backoffice APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
DASHBOARD CONFIG
====================================
*/

// DashboardConfig defines a public type used by backoffice APIs.
//
// DashboardConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DashboardConfig struct {
	// OptionalReadTimeout bounds each optional read so one slow source
	// cannot hold the whole aggregation. Zero means no per-read bound.
	OptionalReadTimeout time.Duration
}

// DefaultInactivityTimeout and DefaultWarningLead are the stock idle-timeout
// parameters: thirty minutes of inactivity ends the session, with a warning
// five minutes before the deadline.
const (
	DefaultInactivityTimeout = 30 * time.Minute
	DefaultWarningLead       = 5 * time.Minute
)

// DefaultConfig returns the stock configuration. Callers adjust what they
// need and pass the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "backoffice",
		},
		Session: SessionConfig{
			RedisPrefix:       "bo",
			SlidingExpiration: true,
			AbsoluteLifetime:  12 * time.Hour,
		},
		Inactivity: InactivityConfig{
			Timeout:     DefaultInactivityTimeout,
			WarningLead: DefaultWarningLead,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   10,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Dashboard: DashboardConfig{
			OptionalReadTimeout: 5 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("%w: JWT AccessTTL must be positive", ErrInvalidConfig)
	}
	switch c.JWT.SigningMethod {
	case "hs256", "ed25519":
	default:
		return fmt.Errorf("%w: unsupported JWT signing method %q", ErrInvalidConfig, c.JWT.SigningMethod)
	}
	if len(c.JWT.PrivateKey) == 0 {
		return fmt.Errorf("%w: JWT private key required", ErrInvalidConfig)
	}

	if c.Session.RedisPrefix == "" {
		return fmt.Errorf("%w: Session RedisPrefix required", ErrInvalidConfig)
	}
	if c.Session.AbsoluteLifetime < 0 {
		return fmt.Errorf("%w: Session AbsoluteLifetime cannot be negative", ErrInvalidConfig)
	}

	if err := c.Inactivity.Validate(); err != nil {
		return err
	}
	if c.Session.AbsoluteLifetime > 0 && c.Session.AbsoluteLifetime < c.Inactivity.Timeout {
		return fmt.Errorf("%w: Session AbsoluteLifetime shorter than inactivity timeout", ErrInvalidConfig)
	}

	if c.Password.Memory < 8*1024 {
		return fmt.Errorf("%w: Password Memory below 8 MB", ErrInvalidConfig)
	}
	if c.Password.Time == 0 {
		return fmt.Errorf("%w: Password Time must be positive", ErrInvalidConfig)
	}
	if c.Password.Parallelism == 0 {
		return fmt.Errorf("%w: Password Parallelism must be positive", ErrInvalidConfig)
	}
	if c.Password.SaltLength < 8 {
		return fmt.Errorf("%w: Password SaltLength below 8 bytes", ErrInvalidConfig)
	}
	if c.Password.KeyLength < 16 {
		return fmt.Errorf("%w: Password KeyLength below 16 bytes", ErrInvalidConfig)
	}
	if c.Password.MinLength < 8 {
		return fmt.Errorf("%w: Password MinLength below 8 characters", ErrInvalidConfig)
	}

	if c.Security.MaxLoginAttempts <= 0 {
		return fmt.Errorf("%w: Security MaxLoginAttempts must be positive", ErrInvalidConfig)
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return fmt.Errorf("%w: Security LoginCooldownDuration must be positive", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be positive when audit is enabled", ErrInvalidConfig)
	}

	if c.Dashboard.OptionalReadTimeout < 0 {
		return fmt.Errorf("%w: Dashboard OptionalReadTimeout cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// Validate checks the idle-timeout pair. The warning must lead the deadline
// by a positive margin strictly smaller than the timeout itself; anything
// else is a configuration error, not a runtime condition.
func (c InactivityConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: Inactivity Timeout must be positive", ErrInvalidConfig)
	}
	if c.WarningLead <= 0 {
		return fmt.Errorf("%w: Inactivity WarningLead must be positive", ErrInvalidConfig)
	}
	if c.WarningLead >= c.Timeout {
		return fmt.Errorf("%w: Inactivity WarningLead must be shorter than Timeout", ErrInvalidConfig)
	}
	return nil
}
