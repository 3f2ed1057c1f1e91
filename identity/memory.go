package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Identity
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, ident *Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareCreate(ident, s.now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[ident.Email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byID[ident.ID]; ok {
		return ErrInvalidIdentity
	}
	cp := *ident
	s.byID[ident.ID] = &cp
	s.byEmail[ident.Email] = ident.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryStore) SetRenewalToken(ctx context.Context, id, token string) error {
	return s.update(ctx, id, func(ident *Identity) error {
		if ident.Role != RoleRecruiter {
			return ErrRoleMismatch
		}
		ident.RenewalToken = token
		return nil
	})
}

func (s *MemoryStore) ClearRenewalToken(ctx context.Context, id string) error {
	return s.update(ctx, id, func(ident *Identity) error {
		ident.RenewalToken = ""
		return nil
	})
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, active bool, approval ApprovalState) error {
	if !approval.Valid() {
		return ErrInvalidIdentity
	}
	return s.update(ctx, id, func(ident *Identity) error {
		ident.Active = active
		ident.ApprovalState = approval
		return nil
	})
}

func (s *MemoryStore) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return ErrInvalidIdentity
	}
	return s.update(ctx, id, func(ident *Identity) error {
		ident.CredentialHash = hash
		return nil
	})
}

func (s *MemoryStore) update(ctx context.Context, id string, fn func(*Identity) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(ident); err != nil {
		return err
	}
	ident.UpdatedAt = s.now().UTC()
	return nil
}
