// Package config loads the back-office server configuration from YAML,
// with ${ENV_VAR} substitution so secrets stay out of the file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Duration wraps time.Duration so YAML values can be written as "30m" or
// "12h" instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig is the top-level configuration file layout.
type ServerConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Admin    AdminConfig    `yaml:"admin"`
	LogLevel string         `yaml:"log_level"`
}

// HTTPConfig configures the listener and cookie behavior.
type HTTPConfig struct {
	Addr          string   `yaml:"addr"`
	SecureCookies bool     `yaml:"secure_cookies"`
	ReadTimeout   Duration `yaml:"read_timeout"`
	WriteTimeout  Duration `yaml:"write_timeout"`
	IdleTimeout   Duration `yaml:"idle_timeout"`
}

// MySQLConfig configures the gorm/MySQL connection.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the session and rate-limit store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig configures the engine's token and inactivity behavior. Zero
// durations fall back to the engine defaults.
type AuthConfig struct {
	JWTSecret         string   `yaml:"jwt_secret"`
	Issuer            string   `yaml:"issuer"`
	AccessTTL         Duration `yaml:"access_ttl"`
	InactivityTimeout Duration `yaml:"inactivity_timeout"`
	WarningLead       Duration `yaml:"warning_lead"`
	AbsoluteLifetime  Duration `yaml:"absolute_lifetime"`
}

// AdminConfig seeds the super-admin account on startup.
type AdminConfig struct {
	Email           string `yaml:"email"`
	DisplayName     string `yaml:"display_name"`
	InitialPassword string `yaml:"initial_password"`
}

// Load reads and parses a YAML configuration file. ${VAR} references are
// replaced with the environment value when one is set.
func Load(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes with ${VAR} substitution.
func Parse(data []byte) (*ServerConfig, error) {
	content := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		varName := match[2 : len(match)-1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	var cfg ServerConfig
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the fields the server cannot default.
func (c *ServerConfig) Validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Admin.Email == "" || c.Admin.InitialPassword == "" {
		return fmt.Errorf("admin.email and admin.initial_password are required")
	}
	return nil
}
