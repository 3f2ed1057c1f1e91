package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/jwt"
)

// plainVerifier compares secrets directly; hashing is covered by package password.
type plainVerifier struct{ dummies int }

func (v *plainVerifier) Verify(plaintext, stored string) bool { return plaintext == stored }
func (v *plainVerifier) VerifyDummy(string)                   { v.dummies++ }

type flowFixture struct {
	deps     Deps
	store    *identity.MemoryStore
	verifier *plainVerifier
	now      time.Time
}

func newFlowFixture(t *testing.T, grace time.Duration) *flowFixture {
	t.Helper()
	f := &flowFixture{
		store:    identity.NewMemoryStore(),
		verifier: &plainVerifier{},
		now:      time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	access, err := jwt.NewManager(jwt.Config{Use: jwt.UseAccess, TTL: 15 * time.Minute, Secret: []byte("access-secret-0123456789abcdef-0123"), Now: clock})
	if err != nil {
		t.Fatalf("access manager: %v", err)
	}
	renewal, err := jwt.NewManager(jwt.Config{Use: jwt.UseRenewal, TTL: 24 * time.Hour, Secret: []byte("renewal-secret-0123456789abcdef-012"), Now: clock})
	if err != nil {
		t.Fatalf("renewal manager: %v", err)
	}
	issuer, err := jwt.NewIssuer(access, renewal)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	f.deps = Deps{
		Store:                  f.store,
		Issuer:                 issuer,
		Verifier:               f.verifier,
		Now:                    clock,
		SupervisorRenewalGrace: grace,
	}
	return f
}

func (f *flowFixture) seed(t *testing.T, email string, role identity.Role) *identity.Identity {
	t.Helper()
	ident := &identity.Identity{
		OrganizationID: "org-1",
		Email:          email,
		CredentialHash: "pw",
		Role:           role,
		Active:         true,
		ApprovalState:  identity.ApprovalApproved,
	}
	if err := f.store.Create(context.Background(), ident); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ident
}

func TestRunLoginUnknownEmailRunsDummyVerification(t *testing.T) {
	f := newFlowFixture(t, 0)

	res := RunLogin(context.Background(), "ghost@agency.example", "pw", identity.RoleRecruiter, f.deps)
	if res.Failure != FailureInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", res.Failure)
	}
	if f.verifier.dummies != 1 {
		t.Fatalf("expected one dummy verification, got %d", f.verifier.dummies)
	}
}

func TestRunLoginSupervisorWritesNothing(t *testing.T) {
	f := newFlowFixture(t, 0)
	sup := f.seed(t, "sam@agency.example", identity.RoleSupervisor)

	res := RunLogin(context.Background(), "SAM@agency.example ", "pw", identity.RoleSupervisor, f.deps)
	if res.Failure != FailureNone {
		t.Fatalf("login failed: %v %v", res.Failure, res.Err)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RenewalToken != "" {
		t.Fatalf("supervisor must receive an access token only: %+v", res.Tokens)
	}
	got, _ := f.store.GetByID(context.Background(), sup.ID)
	if got.RenewalToken != "" || !got.UpdatedAt.Equal(sup.UpdatedAt) {
		t.Fatal("supervisor login must not mutate the store")
	}
}

func TestRunSupervisorRefreshGrace(t *testing.T) {
	f := newFlowFixture(t, time.Hour)
	f.seed(t, "sam@agency.example", identity.RoleSupervisor)
	ctx := context.Background()

	login := RunLogin(ctx, "sam@agency.example", "pw", identity.RoleSupervisor, f.deps)
	if login.Failure != FailureNone {
		t.Fatalf("login failed: %v", login.Failure)
	}

	f.now = f.now.Add(45 * time.Minute)
	if res := RunSupervisorRefresh(ctx, login.Tokens.AccessToken, f.deps); res.Failure != FailureNone {
		t.Fatalf("refresh inside grace failed: %v %v", res.Failure, res.Err)
	}

	f.now = f.now.Add(time.Hour)
	if res := RunSupervisorRefresh(ctx, login.Tokens.AccessToken, f.deps); res.Failure != FailureTokenExpired {
		t.Fatalf("expected token expired past grace, got %v", res.Failure)
	}
}

func TestRunSupervisorRefreshRejectsRenewalToken(t *testing.T) {
	f := newFlowFixture(t, 0)
	f.seed(t, "rita@agency.example", identity.RoleRecruiter)
	ctx := context.Background()

	login := RunLogin(ctx, "rita@agency.example", "pw", identity.RoleRecruiter, f.deps)
	if res := RunSupervisorRefresh(ctx, login.Tokens.RenewalToken, f.deps); res.Failure != FailureInvalidToken {
		t.Fatalf("renewal token must not pass the access manager, got %v", res.Failure)
	}
	if res := RunSupervisorRefresh(ctx, login.Tokens.AccessToken, f.deps); res.Failure != FailureWrongRole {
		t.Fatalf("recruiter access token must be a role mismatch, got %v", res.Failure)
	}
}

func TestRunVerifyRenewalRequiresStoredEquality(t *testing.T) {
	f := newFlowFixture(t, 0)
	rec := f.seed(t, "rita@agency.example", identity.RoleRecruiter)
	ctx := context.Background()

	first := RunLogin(ctx, "rita@agency.example", "pw", identity.RoleRecruiter, f.deps)
	f.now = f.now.Add(time.Second)
	second := RunLogin(ctx, "rita@agency.example", "pw", identity.RoleRecruiter, f.deps)

	if res := RunVerifyRenewal(ctx, first.Tokens.RenewalToken, f.deps); res.Failure != FailureIdentityInvalid {
		t.Fatalf("superseded token must be rejected, got %v", res.Failure)
	}
	if res := RunVerifyRenewal(ctx, second.Tokens.RenewalToken, f.deps); res.Failure != FailureNone {
		t.Fatalf("current token rejected: %v %v", res.Failure, res.Err)
	}

	if res := RunRecruiterLogout(ctx, rec.ID, f.deps); res.Failure != FailureNone {
		t.Fatalf("logout failed: %v", res.Failure)
	}
	if res := RunVerifyRenewal(ctx, second.Tokens.RenewalToken, f.deps); res.Failure != FailureIdentityInvalid {
		t.Fatalf("token must be rejected after logout, got %v", res.Failure)
	}
}

func TestRunVerifyRenewalExpired(t *testing.T) {
	f := newFlowFixture(t, 0)
	f.seed(t, "rita@agency.example", identity.RoleRecruiter)
	ctx := context.Background()

	login := RunLogin(ctx, "rita@agency.example", "pw", identity.RoleRecruiter, f.deps)
	f.now = f.now.Add(25 * time.Hour)

	res := RunVerifyRenewal(ctx, login.Tokens.RenewalToken, f.deps)
	if res.Failure != FailureRenewalExpired || !errors.Is(res.Err, jwt.ErrExpired) {
		t.Fatalf("expected renewal expired, got %v %v", res.Failure, res.Err)
	}
}

func TestRunRecruiterLogoutUnknownIdentity(t *testing.T) {
	f := newFlowFixture(t, 0)
	if res := RunRecruiterLogout(context.Background(), "missing", f.deps); res.Failure != FailureIdentityInvalid {
		t.Fatalf("expected identity invalid, got %v", res.Failure)
	}
}

func TestFailureKindString(t *testing.T) {
	if FailureWrongRole.String() != "wrong_role" || FailureKind(99).String() != "unknown" {
		t.Fatal("unexpected FailureKind names")
	}
}
