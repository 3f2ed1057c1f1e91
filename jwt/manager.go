package jwt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HMAC secret accepted by [NewManager].
const MinSecretLength = 32

// TokenUse tags a token with the class it was minted for. A token is only
// accepted by a [Manager] configured for the same class.
type TokenUse string

const (
	// UseAccess marks short-lived per-request access tokens.
	UseAccess TokenUse = "access"
	// UseRenewal marks long-lived renewal tokens.
	UseRenewal TokenUse = "renewal"
)

var (
	// ErrExpired is returned when the signature is intact but the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned for malformed tokens, bad signatures, and claim mismatches.
	ErrInvalid = errors.New("token invalid")
	// ErrClaimsIncomplete is returned by issuance when a required principal field is empty.
	ErrClaimsIncomplete = errors.New("token claims incomplete")
)

// Config configures a single token class.
type Config struct {
	Use      TokenUse
	TTL      time.Duration
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration

	// Now overrides the clock used for issuance and expiry checks.
	Now func() time.Time
}

// Principal is the identity data carried by every token.
type Principal struct {
	IdentityID     string
	Email          string
	Role           string
	OrganizationID string

	// SessionID becomes the jti claim. Callers set a fresh value per
	// issuance when two tokens for the same principal and second must differ.
	SessionID string
}

func (p Principal) complete() bool {
	return p.IdentityID != "" && p.Email != "" && p.Role != "" && p.OrganizationID != ""
}

// Claims is the signed claim set.
type Claims struct {
	IdentityID     string   `json:"uid"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	OrganizationID string   `json:"org"`
	Use            TokenUse `json:"typ"`
	jwt.RegisteredClaims
}

// Principal returns the identity fields of the claim set.
func (c *Claims) Principal() Principal {
	return Principal{
		IdentityID:     c.IdentityID,
		Email:          c.Email,
		Role:           c.Role,
		OrganizationID: c.OrganizationID,
		SessionID:      c.ID,
	}
}

// Manager signs and verifies HS256 tokens of one class with its own secret.
//
// Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	switch cfg.Use {
	case UseAccess, UseRenewal:
	default:
		return nil, fmt.Errorf("unsupported token use %q", cfg.Use)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%s signing secret must be at least %d bytes", cfg.Use, MinSecretLength)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)
	cfg.Secret = slices.Clone(cfg.Secret)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{config: cfg}, nil
}

// Use reports the token class this manager handles.
func (m *Manager) Use() TokenUse {
	return m.config.Use
}

// TTL reports the validity window of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Issue signs a token for p. Identical principals, session ID included,
// signed at the same clock second produce identical tokens.
func (m *Manager) Issue(p Principal) (string, error) {
	if !p.complete() {
		return "", ErrClaimsIncomplete
	}

	now := m.config.Now()
	claims := Claims{
		IdentityID:     p.IdentityID,
		Email:          p.Email,
		Role:           p.Role,
		OrganizationID: p.OrganizationID,
		Use:            m.config.Use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.SessionID,
			Subject:   p.IdentityID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies signature, structure and expiry. Expired tokens whose
// signature and remaining claims are intact fail with [ErrExpired]; every
// other failure wraps [ErrInvalid].
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, false)
	if err == nil {
		return claims, nil
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, invalid(err)
	}
	// Only report expiry when nothing else is wrong with the token.
	if _, err := m.parse(tokenStr, true); err != nil {
		return nil, invalid(err)
	}
	return nil, ErrExpired
}

// ParseAllowExpired verifies signature and structure but ignores expiry.
// It must only be used by renewal paths that have already seen [ErrExpired]
// from [Manager.Parse] or accept live tokens as well.
func (m *Manager) ParseAllowExpired(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr, true)
	if err != nil {
		return nil, invalid(err)
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, skipExpiry bool) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, errors.New("empty token")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}
	if skipExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if skipExpiry {
		// Claims validation was skipped wholesale; re-apply everything but exp.
		if claims.ExpiresAt == nil {
			return nil, jwt.ErrTokenRequiredClaimMissing
		}
		if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
			return nil, jwt.ErrTokenInvalidIssuer
		}
		if m.config.Audience != "" && !slices.Contains(claims.Audience, m.config.Audience) {
			return nil, jwt.ErrTokenInvalidAudience
		}
		if claims.IssuedAt != nil && claims.IssuedAt.After(m.config.Now().Add(m.config.Leeway)) {
			return nil, jwt.ErrTokenUsedBeforeIssued
		}
	}

	if claims.Use != m.config.Use {
		return nil, fmt.Errorf("token class %q presented to %q verifier", claims.Use, m.config.Use)
	}
	if !claims.Principal().complete() {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}

	return claims, nil
}

func invalid(err error) error {
	if errors.Is(err, ErrInvalid) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
