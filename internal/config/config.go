// Package config loads the roleauth binaries' settings from a YAML file, an
// optional .env file and ROLEAUTH_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	roleAuth "github.com/MrEthical07/roleAuth"
)

const envPrefix = "ROLEAUTH_"

// Config holds every setting a roleauth binary reads at startup.
type Config struct {
	Listen   string      `yaml:"listen"`
	LogLevel string      `yaml:"log_level"`
	Store    StoreConfig `yaml:"store"`
	Auth     AuthConfig  `yaml:"auth"`
	OTel     bool        `yaml:"otel"`
}

// StoreConfig selects the identity backend.
type StoreConfig struct {
	// Backend is one of memory, memory-redis, redis, postgres, mysql, sqlite.
	Backend     string `yaml:"backend"`
	DSN         string `yaml:"dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// AuthConfig mirrors the tunable parts of roleAuth.Config. Zero values keep
// the engine defaults.
type AuthConfig struct {
	AccessSecret           string         `yaml:"access_secret"`
	RenewalSecret          string         `yaml:"renewal_secret"`
	AccessTTL              time.Duration  `yaml:"access_ttl"`
	RenewalTTL             time.Duration  `yaml:"renewal_ttl"`
	Issuer                 string         `yaml:"issuer"`
	Audience               string         `yaml:"audience"`
	Leeway                 *time.Duration `yaml:"leeway"`
	SupervisorRenewalGrace time.Duration  `yaml:"supervisor_renewal_grace"`

	CookieName     string `yaml:"cookie_name"`
	CookieDomain   string `yaml:"cookie_domain"`
	CookieSecure   *bool  `yaml:"cookie_secure"`
	CookieSameSite string `yaml:"cookie_same_site"`

	Audit   bool  `yaml:"audit"`
	Metrics *bool `yaml:"metrics"`
}

// Default returns settings for a local development server.
func Default() Config {
	return Config{
		Listen:   ":8080",
		LogLevel: "info",
		Store:    StoreConfig{Backend: "memory", RedisPrefix: "roleauth"},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a missing
// .env file in the working directory is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}
	boolean := func(name string, dst **bool) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = &b
		return nil
	}

	str("LISTEN", &c.Listen)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_DSN", &c.Store.DSN)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PREFIX", &c.Store.RedisPrefix)
	str("ACCESS_SECRET", &c.Auth.AccessSecret)
	str("RENEWAL_SECRET", &c.Auth.RenewalSecret)
	str("ISSUER", &c.Auth.Issuer)
	str("AUDIENCE", &c.Auth.Audience)
	str("COOKIE_NAME", &c.Auth.CookieName)
	str("COOKIE_DOMAIN", &c.Auth.CookieDomain)
	str("COOKIE_SAME_SITE", &c.Auth.CookieSameSite)

	for name, dst := range map[string]*time.Duration{
		"ACCESS_TTL":               &c.Auth.AccessTTL,
		"RENEWAL_TTL":              &c.Auth.RenewalTTL,
		"SUPERVISOR_RENEWAL_GRACE": &c.Auth.SupervisorRenewalGrace,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup(envPrefix + "LEEWAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sLEEWAY: %w", envPrefix, err)
		}
		c.Auth.Leeway = &d
	}
	if err := boolean("COOKIE_SECURE", &c.Auth.CookieSecure); err != nil {
		return err
	}
	if err := boolean("METRICS", &c.Auth.Metrics); err != nil {
		return err
	}

	var audit, otel *bool
	if err := boolean("AUDIT", &audit); err != nil {
		return err
	}
	if audit != nil {
		c.Auth.Audit = *audit
	}
	if err := boolean("OTEL", &otel); err != nil {
		return err
	}
	if otel != nil {
		c.OTel = *otel
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "memory-redis":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("config: store.redis_addr is required for the redis backend")
		}
	case "postgres", "mysql", "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Engine converts the auth settings into an engine configuration on top of
// roleAuth.DefaultConfig. The result is validated by the builder.
func (c Config) Engine() roleAuth.Config {
	out := roleAuth.DefaultConfig()
	a := c.Auth

	out.JWT.AccessSecret = []byte(a.AccessSecret)
	out.JWT.RenewalSecret = []byte(a.RenewalSecret)
	if a.AccessTTL > 0 {
		out.JWT.AccessTTL = a.AccessTTL
	}
	if a.RenewalTTL > 0 {
		out.JWT.RenewalTTL = a.RenewalTTL
	}
	if a.Issuer != "" {
		out.JWT.Issuer = a.Issuer
	}
	out.JWT.Audience = a.Audience
	if a.Leeway != nil {
		out.JWT.Leeway = *a.Leeway
	}
	out.JWT.SupervisorRenewalGrace = a.SupervisorRenewalGrace

	if a.CookieName != "" {
		out.Cookie.Name = a.CookieName
	}
	out.Cookie.Domain = a.CookieDomain
	if a.CookieSecure != nil {
		out.Cookie.Secure = *a.CookieSecure
	}
	if a.CookieSameSite != "" {
		out.Cookie.SameSite = a.CookieSameSite
	}

	out.Audit.Enabled = a.Audit
	if a.Metrics != nil {
		out.Metrics.Enabled = *a.Metrics
		out.Metrics.EnableLatencyHistograms = *a.Metrics
	}
	return out
}
