package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists identities. Implementations must make SetRenewalToken and
// ClearRenewalToken a single atomic write of one field: concurrent writers
// race and the last one wins.
type Store interface {
	// Create inserts a new identity. Email is normalized, ID is generated
	// when empty, and ApprovalState defaults to pending.
	Create(ctx context.Context, ident *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	SetRenewalToken(ctx context.Context, id, token string) error
	ClearRenewalToken(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, active bool, approval ApprovalState) error
	UpdateCredentialHash(ctx context.Context, id, hash string) error
}

// prepareCreate fills defaults and validates a record before insertion.
func prepareCreate(ident *Identity, now time.Time) error {
	ident.Email = NormalizeEmail(ident.Email)
	if ident.ID == "" {
		ident.ID = uuid.NewString()
	}
	if ident.ApprovalState == "" {
		ident.ApprovalState = ApprovalPending
	}
	if err := ident.validateNew(); err != nil {
		return err
	}
	ident.CreatedAt = now.UTC()
	ident.UpdatedAt = ident.CreatedAt
	return nil
}
