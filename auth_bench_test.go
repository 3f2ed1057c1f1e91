package roleAuth

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/password"
)

func BenchmarkAuthenticateSupervisor(b *testing.B) {
	engine, store := newBenchmarkEngine(b)
	seedBenchmarkIdentity(b, store, "sam@agency.example", identity.RoleSupervisor)

	res, err := engine.Login(context.Background(), LoginRequest{Email: "sam@agency.example", Secret: testSecret, Role: identity.RoleSupervisor})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	cred := Credential{Kind: CredentialAccess, Token: res.AccessToken}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), cred); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateRecruiter(b *testing.B) {
	engine, store := newBenchmarkEngine(b)
	seedBenchmarkIdentity(b, store, "rita@agency.example", identity.RoleRecruiter)

	res, err := engine.Login(context.Background(), LoginRequest{Email: "rita@agency.example", Secret: testSecret, Role: identity.RoleRecruiter})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	cred := Credential{Kind: CredentialRenewal, Token: res.RenewalToken}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), cred); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, store := newBenchmarkEngine(b)
	seedBenchmarkIdentity(b, store, "rita@agency.example", identity.RoleRecruiter)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), LoginRequest{Email: "rita@agency.example", Secret: testSecret, Role: identity.RoleRecruiter}); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, *identity.MemoryStore) {
	tb.Helper()

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	cfg.JWT.AccessTTL = 10 * time.Minute

	store := identity.NewMemoryStore()
	engine, err := New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}
	tb.Cleanup(engine.Close)
	return engine, store
}

func seedBenchmarkIdentity(tb testing.TB, store identity.Store, email string, role identity.Role) {
	tb.Helper()

	hasher, err := password.NewArgon2(fastPasswordConfig().argon2())
	if err != nil {
		tb.Fatalf("argon2 init failed: %v", err)
	}
	hash, err := hasher.Hash(testSecret)
	if err != nil {
		tb.Fatalf("hash failed: %v", err)
	}
	err = store.Create(context.Background(), &identity.Identity{
		OrganizationID: testOrg,
		Email:          email,
		CredentialHash: hash,
		Role:           role,
		Active:         true,
		ApprovalState:  identity.ApprovalApproved,
	})
	if err != nil {
		tb.Fatalf("create failed: %v", err)
	}
}
