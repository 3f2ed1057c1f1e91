package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no identity matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRoleMismatch is returned when a write is not permitted for the identity's role.
	ErrRoleMismatch = errors.New("operation not permitted for identity role")
	// ErrInvalidIdentity is returned by Create for records that fail validation.
	ErrInvalidIdentity = errors.New("invalid identity record")
)

// Role is the actor class of an identity.
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleRecruiter  Role = "recruiter"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSupervisor || r == RoleRecruiter
}

// ParseRole maps a case-insensitive role name to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// ApprovalState tracks where an identity sits in the approval workflow.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalDeleted  ApprovalState = "deleted"
)

// Valid reports whether s is one of the known approval states.
func (s ApprovalState) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalDeleted:
		return true
	}
	return false
}

// Identity is a persisted account. CredentialHash and RenewalToken never
// leave the process in JSON.
type Identity struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Email          string        `json:"email"`
	CredentialHash string        `json:"-"`
	Role           Role          `json:"role"`
	Active         bool          `json:"active"`
	ApprovalState  ApprovalState `json:"approvalState"`
	RenewalToken   string        `json:"-"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// PublicProfile is the outward view of an identity.
type PublicProfile struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organizationId"`
	Email          string        `json:"email"`
	Role           Role          `json:"role"`
	Active         bool          `json:"active"`
	ApprovalState  ApprovalState `json:"approvalState"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Public returns the profile of i without secret material.
func (i *Identity) Public() *PublicProfile {
	return &PublicProfile{
		ID:             i.ID,
		OrganizationID: i.OrganizationID,
		Email:          i.Email,
		Role:           i.Role,
		Active:         i.Active,
		ApprovalState:  i.ApprovalState,
		CreatedAt:      i.CreatedAt,
	}
}

// Deleted reports whether i has been soft-deleted.
func (i *Identity) Deleted() bool {
	return i.ApprovalState == ApprovalDeleted
}

// CanAuthenticate reports whether i may hold a session.
func (i *Identity) CanAuthenticate() bool {
	return i.Active && i.ApprovalState == ApprovalApproved
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (i *Identity) validateNew() error {
	switch {
	case i.OrganizationID == "":
		return fmt.Errorf("%w: organization required", ErrInvalidIdentity)
	case i.CredentialHash == "":
		return fmt.Errorf("%w: credential hash required", ErrInvalidIdentity)
	case !i.Role.Valid():
		return fmt.Errorf("%w: role %q", ErrInvalidIdentity, i.Role)
	case !i.ApprovalState.Valid():
		return fmt.Errorf("%w: approval state %q", ErrInvalidIdentity, i.ApprovalState)
	case i.RenewalToken != "":
		return fmt.Errorf("%w: renewal token must be empty on create", ErrInvalidIdentity)
	}

	addr, err := mail.ParseAddress(i.Email)
	if err != nil || addr.Address != i.Email {
		return fmt.Errorf("%w: email %q", ErrInvalidIdentity, i.Email)
	}
	return nil
}
