package roleAuth

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/internal/flows"
	"github.com/MrEthical07/roleAuth/jwt"
	"github.com/MrEthical07/roleAuth/password"
)

// Builder assembles an [Engine]. A Builder can be built once.
//
//	engine, err := roleAuth.New().
//		WithConfig(cfg).
//		WithStore(store).
//		WithLogger(logger).
//		Build()
type Builder struct {
	config    Config
	store     identity.Store
	logger    *zap.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the identity store. Required.
func (b *Builder) WithStore(store identity.Store) *Builder {
	b.store = store
	return b
}

// WithLogger sets the engine logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the clock used for token issuance and verification.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. Configuration
// problems are reported as [ErrConfiguration].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, configError("identity store required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- TOKEN ISSUER --------
	access, err := jwt.NewManager(jwt.Config{
		Use:      jwt.UseAccess,
		TTL:      cfg.JWT.AccessTTL,
		Secret:   cfg.JWT.AccessSecret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Leeway:   cfg.JWT.Leeway,
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	renewal, err := jwt.NewManager(jwt.Config{
		Use:      jwt.UseRenewal,
		TTL:      cfg.JWT.RenewalTTL,
		Secret:   cfg.JWT.RenewalSecret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Leeway:   cfg.JWT.Leeway,
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	issuer, err := jwt.NewIssuer(access, renewal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	// -------- CREDENTIAL VERIFIER --------
	verifier, err := password.NewVerifier(cfg.Password.argon2())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	engine := &Engine{
		config:   cfg,
		store:    b.store,
		issuer:   issuer,
		verifier: verifier,
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger.Named("roleauth"),
		now:      now,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, engine.logger)
	engine.deps = flows.Deps{
		Store:                  b.store,
		Issuer:                 issuer,
		Verifier:               verifier,
		Now:                    now,
		SupervisorRenewalGrace: cfg.JWT.SupervisorRenewalGrace,
	}

	b.built = true
	return engine, nil
}
