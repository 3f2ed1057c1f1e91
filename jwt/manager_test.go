package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	accessSecret  = []byte("access-secret-0123456789abcdef-0123")
	renewalSecret = []byte("renewal-secret-0123456789abcdef-012")
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func testPrincipal() Principal {
	return Principal{
		IdentityID:     "id-1",
		Email:          "rita@agency.example",
		Role:           "recruiter",
		OrganizationID: "org-1",
	}
}

func newTestIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()

	access, err := NewManager(Config{
		Use:      UseAccess,
		TTL:      15 * time.Minute,
		Secret:   accessSecret,
		Issuer:   "roleauth",
		Audience: "placements",
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("access manager: %v", err)
	}
	renewal, err := NewManager(Config{
		Use:      UseRenewal,
		TTL:      7 * 24 * time.Hour,
		Secret:   renewalSecret,
		Issuer:   "roleauth",
		Audience: "placements",
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("renewal manager: %v", err)
	}
	issuer, err := NewIssuer(access, renewal)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func TestIssueTokensRoundTripRecoversClaims(t *testing.T) {
	clock := newClock()
	issuer := newTestIssuer(t, clock)

	pair, err := issuer.IssueTokens(testPrincipal())
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	access, err := issuer.Access().Parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if access.Principal() != testPrincipal() {
		t.Fatalf("access principal mismatch: %+v", access.Principal())
	}
	if access.Use != UseAccess {
		t.Fatalf("expected access use, got %q", access.Use)
	}

	renewal, err := issuer.Renewal().Parse(pair.RenewalToken)
	if err != nil {
		t.Fatalf("parse renewal: %v", err)
	}
	if renewal.Principal() != testPrincipal() {
		t.Fatalf("renewal principal mismatch: %+v", renewal.Principal())
	}
	if !renewal.ExpiresAt.Time.Equal(clock.now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected renewal expiry: %v", renewal.ExpiresAt.Time)
	}
}

func TestIssueIsDeterministicForSameClaimsAndTime(t *testing.T) {
	issuer := newTestIssuer(t, newClock())

	a, err := issuer.IssueAccess(testPrincipal())
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	b, err := issuer.IssueAccess(testPrincipal())
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if a != b {
		t.Fatal("expected identical tokens for identical claims and clock")
	}
}

func TestIssueSessionIDSeparatesSameSecondTokens(t *testing.T) {
	issuer := newTestIssuer(t, newClock())

	p1, p2 := testPrincipal(), testPrincipal()
	p1.SessionID = "session-1"
	p2.SessionID = "session-2"

	a, err := issuer.IssueTokens(p1)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	b, err := issuer.IssueTokens(p2)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if a.RenewalToken == b.RenewalToken {
		t.Fatal("distinct session IDs must yield distinct renewal tokens")
	}

	claims, err := issuer.Renewal().Parse(a.RenewalToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.ID != "session-1" || claims.Principal() != p1 {
		t.Fatalf("session ID not carried as jti: %+v", claims.Principal())
	}
}

func TestIssueRejectsIncompleteClaims(t *testing.T) {
	issuer := newTestIssuer(t, newClock())

	p := testPrincipal()
	p.OrganizationID = ""
	if _, err := issuer.IssueTokens(p); !errors.Is(err, ErrClaimsIncomplete) {
		t.Fatalf("expected ErrClaimsIncomplete, got %v", err)
	}
}

func TestParseDistinguishesExpiredFromInvalid(t *testing.T) {
	clock := newClock()
	issuer := newTestIssuer(t, clock)

	token, err := issuer.IssueAccess(testPrincipal())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.Advance(16 * time.Minute)
	if _, err := issuer.Access().Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	tampered := token[:len(token)-2] + flip(token[len(token)-2:])
	_, err = issuer.Access().Parse(tampered)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered expired token, got %v", err)
	}
	if errors.Is(err, ErrExpired) {
		t.Fatal("tampered token must not report expiry")
	}
}

func TestParseAllowExpiredStillVerifiesSignature(t *testing.T) {
	clock := newClock()
	issuer := newTestIssuer(t, clock)

	token, err := issuer.IssueAccess(testPrincipal())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.Advance(48 * time.Hour)

	claims, err := issuer.Access().ParseAllowExpired(token)
	if err != nil {
		t.Fatalf("ParseAllowExpired: %v", err)
	}
	if claims.IdentityID != "id-1" {
		t.Fatalf("unexpected identity: %q", claims.IdentityID)
	}

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := issuer.Access().ParseAllowExpired(forged); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected forged signature to be invalid, got %v", err)
	}
}

func TestTokenClassesDoNotCrossVerify(t *testing.T) {
	issuer := newTestIssuer(t, newClock())

	pair, err := issuer.IssueTokens(testPrincipal())
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if _, err := issuer.Renewal().Parse(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access token accepted as renewal: %v", err)
	}
	if _, err := issuer.Access().Parse(pair.RenewalToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("renewal token accepted as access: %v", err)
	}
}

func TestParseRejectsUseClaimMismatchUnderSameSecret(t *testing.T) {
	clock := newClock()
	m, err := NewManager(Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{
		IdentityID:     "id-1",
		Email:          "rita@agency.example",
		Role:           "recruiter",
		OrganizationID: "org-1",
		Use:            UseRenewal,
		RegisteredClaims: gjwt.RegisteredClaims{
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(accessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected typ mismatch to be invalid, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	clock := newClock()
	m, err := NewManager(Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{
		IdentityID:     "id-1",
		Email:          "rita@agency.example",
		Role:           "recruiter",
		OrganizationID: "org-1",
		Use:            UseAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS384, claims).SignedString(accessSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected HS384 token to be rejected, got %v", err)
	}
}

func TestParseExpiredWithWrongIssuerIsInvalid(t *testing.T) {
	clock := newClock()
	other, err := NewManager(Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Issuer: "elsewhere", Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m, err := NewManager(Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Issuer: "roleauth", Now: clock.Now})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := other.Issue(testPrincipal())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock.Advance(time.Hour)

	_, err = m.Parse(token)
	if !errors.Is(err, ErrInvalid) || errors.Is(err, ErrExpired) {
		t.Fatalf("expected invalid (not expired), got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown use", Config{Use: "id", TTL: time.Minute, Secret: accessSecret}},
		{"zero ttl", Config{Use: UseAccess, Secret: accessSecret}},
		{"short secret", Config{Use: UseAccess, TTL: time.Minute, Secret: []byte("short")}},
		{"negative leeway", Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Leeway: -time.Second}},
		{"huge leeway", Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret, Leeway: time.Hour}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestNewIssuerRejectsSharedSecret(t *testing.T) {
	access, err := NewManager(Config{Use: UseAccess, TTL: time.Minute, Secret: accessSecret})
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	renewal, err := NewManager(Config{Use: UseRenewal, TTL: time.Hour, Secret: accessSecret})
	if err != nil {
		t.Fatalf("renewal: %v", err)
	}
	if _, err := NewIssuer(access, renewal); err == nil {
		t.Fatal("expected shared secret to be rejected")
	}
	if _, err := NewIssuer(renewal, access); err == nil {
		t.Fatal("expected swapped managers to be rejected")
	}
}

func flip(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
	}
	return string(b)
}
