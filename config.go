package roleAuth

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/roleAuth/jwt"
	"github.com/MrEthical07/roleAuth/password"
)

// Config is the complete engine configuration. Build it with [DefaultConfig],
// override fields, and let [Builder.Build] validate it.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Cookie   CookieConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures both token classes. Each class has its own secret.
type JWTConfig struct {
	AccessSecret  []byte
	RenewalSecret []byte
	AccessTTL     time.Duration
	RenewalTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration

	// SupervisorRenewalGrace bounds how long after expiry a supervisor access
	// token can still be exchanged. Zero means no bound.
	SupervisorRenewalGrace time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id parameters used for the dummy
// verification on unknown emails and by tooling that hashes new credentials.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (c PasswordConfig) argon2() password.Argon2Config {
	return password.Argon2Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the recruiter renewal cookie.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite string
}

// SameSiteMode converts the configured SameSite name to its net/http value.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. Signing secrets are left empty
// and must be supplied.
func DefaultConfig() Config {
	p := password.DefaultArgon2Config()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RenewalTTL: 7 * 24 * time.Hour,
			Issuer:     "roleauth",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      p.Memory,
			Time:        p.Time,
			Parallelism: p.Parallelism,
			SaltLength:  p.SaltLength,
			KeyLength:   p.KeyLength,
		},
		Cookie: CookieConfig{
			Name:     "refreshToken",
			Path:     "/",
			Secure:   true,
			SameSite: "strict",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate checks c and returns an error wrapping [ErrConfiguration] on the
// first problem found.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) < jwt.MinSecretLength {
		return configError("JWT AccessSecret must be at least %d bytes", jwt.MinSecretLength)
	}
	if len(c.JWT.RenewalSecret) < jwt.MinSecretLength {
		return configError("JWT RenewalSecret must be at least %d bytes", jwt.MinSecretLength)
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RenewalSecret) {
		return configError("JWT AccessSecret and RenewalSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return configError("JWT AccessTTL must be > 0")
	}
	if c.JWT.RenewalTTL <= 0 {
		return configError("JWT RenewalTTL must be > 0")
	}
	if c.JWT.RenewalTTL <= c.JWT.AccessTTL {
		return configError("JWT RenewalTTL must exceed AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return configError("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.SupervisorRenewalGrace < 0 {
		return configError("JWT SupervisorRenewalGrace must be >= 0")
	}

	// Password
	if err := c.Password.argon2().Validate(); err != nil {
		return configError("Password: %v", err)
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return configError("Cookie Name must be set")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "", "lax", "strict":
	case "none":
		if !c.Cookie.Secure {
			return configError("Cookie SameSite=none requires Secure")
		}
	default:
		return configError("Cookie SameSite %q is not one of lax, strict, none", c.Cookie.SameSite)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return configError("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.AccessSecret = bytes.Clone(c.JWT.AccessSecret)
	out.JWT.RenewalSecret = bytes.Clone(c.JWT.RenewalSecret)
	return out
}
