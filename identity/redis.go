package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures from the Redis backend.
var ErrRedisUnavailable = errors.New("identity redis unavailable")

const (
	fieldID           = "id"
	fieldOrganization = "organization_id"
	fieldEmail        = "email"
	fieldHash         = "credential_hash"
	fieldRole         = "role"
	fieldActive       = "active"
	fieldApproval     = "approval_state"
	fieldRenewal      = "renewal_token"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

// createIdentityLua claims the email index and writes the record in one step.
// KEYS[1] = email index key
// KEYS[2] = record key
// ARGV[1] = identity id
// ARGV[2..] = field/value pairs
var createIdentityLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return {err='email_taken'}
end
if redis.call('EXISTS', KEYS[2]) == 1 then
  return {err='id_taken'}
end
redis.call('SET', KEYS[1], ARGV[1])
local fields = {}
for i = 2, #ARGV do
  fields[#fields + 1] = ARGV[i]
end
redis.call('HSET', KEYS[2], unpack(fields))
return 1
`)

// updateIdentityLua overwrites fields of an existing record without reading
// them back into the client.
// KEYS[1] = record key
// ARGV[1] = required role, empty for any
// ARGV[2..] = field/value pairs
var updateIdentityLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end
if ARGV[1] ~= '' and redis.call('HGET', KEYS[1], 'role') ~= ARGV[1] then
  return {err='role_mismatch'}
end
local fields = {}
for i = 2, #ARGV do
  fields[#fields + 1] = ARGV[i]
end
redis.call('HSET', KEYS[1], unpack(fields))
return 1
`)

// RedisStore keeps each identity in a hash with a separate email index key.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a RedisStore. An empty prefix defaults to "ra".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ra"
	}
	return &RedisStore{redis: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":ident:" + id
}

func (s *RedisStore) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

func (s *RedisStore) Create(ctx context.Context, ident *Identity) error {
	if err := prepareCreate(ident, s.now()); err != nil {
		return err
	}

	args := []any{
		ident.ID,
		fieldID, ident.ID,
		fieldOrganization, ident.OrganizationID,
		fieldEmail, ident.Email,
		fieldHash, ident.CredentialHash,
		fieldRole, string(ident.Role),
		fieldActive, encodeBool(ident.Active),
		fieldApproval, string(ident.ApprovalState),
		fieldRenewal, "",
		fieldCreatedAt, ident.CreatedAt.Format(time.RFC3339Nano),
		fieldUpdatedAt, ident.UpdatedAt.Format(time.RFC3339Nano),
	}
	err := createIdentityLua.Run(ctx, s.redis, []string{s.emailKey(ident.Email), s.recordKey(ident.ID)}, args...).Err()
	return s.mapScriptError(err)
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (*Identity, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	fields, err := s.redis.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeIdentity(fields)
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	id, err := s.redis.Get(ctx, s.emailKey(NormalizeEmail(email))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

func (s *RedisStore) SetRenewalToken(ctx context.Context, id, token string) error {
	return s.update(ctx, id, RoleRecruiter, fieldRenewal, token)
}

func (s *RedisStore) ClearRenewalToken(ctx context.Context, id string) error {
	return s.update(ctx, id, "", fieldRenewal, "")
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, active bool, approval ApprovalState) error {
	if !approval.Valid() {
		return ErrInvalidIdentity
	}
	return s.update(ctx, id, "", fieldActive, encodeBool(active), fieldApproval, string(approval))
}

func (s *RedisStore) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return ErrInvalidIdentity
	}
	return s.update(ctx, id, "", fieldHash, hash)
}

func (s *RedisStore) update(ctx context.Context, id string, role Role, pairs ...string) error {
	if id == "" {
		return ErrNotFound
	}
	args := make([]any, 0, len(pairs)+3)
	args = append(args, string(role))
	for _, p := range pairs {
		args = append(args, p)
	}
	args = append(args, fieldUpdatedAt, s.now().UTC().Format(time.RFC3339Nano))

	err := updateIdentityLua.Run(ctx, s.redis, []string{s.recordKey(id)}, args...).Err()
	return s.mapScriptError(err)
}

func (s *RedisStore) mapScriptError(err error) error {
	if err == nil {
		return nil
	}
	switch err.Error() {
	case "email_taken":
		return ErrEmailTaken
	case "id_taken":
		return fmt.Errorf("%w: duplicate id", ErrInvalidIdentity)
	case "not_found":
		return ErrNotFound
	case "role_mismatch":
		return ErrRoleMismatch
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

func decodeIdentity(fields map[string]string) (*Identity, error) {
	ident := &Identity{
		ID:             fields[fieldID],
		OrganizationID: fields[fieldOrganization],
		Email:          fields[fieldEmail],
		CredentialHash: fields[fieldHash],
		Role:           Role(fields[fieldRole]),
		Active:         fields[fieldActive] == "1",
		ApprovalState:  ApprovalState(fields[fieldApproval]),
		RenewalToken:   fields[fieldRenewal],
	}
	var err error
	if ident.CreatedAt, err = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("decode identity %s: created_at: %w", ident.ID, err)
	}
	if ident.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("decode identity %s: updated_at: %w", ident.ID, err)
	}
	if !ident.Role.Valid() || !ident.ApprovalState.Valid() {
		return nil, fmt.Errorf("decode identity %s: corrupt role or approval state", ident.ID)
	}
	return ident, nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
