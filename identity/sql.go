package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL flavour and driver for [SQLStore].
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectMySQL:
		return "mysql", nil
	case DialectSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", d)
}

const identityTableDDL = `CREATE TABLE IF NOT EXISTS identities (
	id              VARCHAR(64)  PRIMARY KEY,
	organization_id VARCHAR(64)  NOT NULL,
	email           VARCHAR(320) NOT NULL UNIQUE,
	credential_hash VARCHAR(255) NOT NULL,
	role            VARCHAR(16)  NOT NULL,
	active          BOOLEAN      NOT NULL,
	approval_state  VARCHAR(16)  NOT NULL,
	renewal_token   TEXT,
	created_at      BIGINT       NOT NULL,
	updated_at      BIGINT       NOT NULL
)`

const identityColumns = `id, organization_id, email, credential_hash, role, active, approval_state, renewal_token, created_at, updated_at`

// SQLStore persists identities in a relational database through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQLStore opens dsn with the driver for dialect and migrates the schema.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}
	if dialect == DialectMySQL {
		// Row counts must reflect matched rows, not changed rows, so that
		// rewriting an unchanged value is not mistaken for a missing record.
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ClientFoundRows = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open identity db: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite allows one writer; serialize instead of surfacing SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping identity db: %w", err)
	}

	store := NewSQLStore(db, dialect)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an already-open database. Call Migrate before use when the
// schema may be missing.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// Migrate creates the identities table when it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, identityTableDDL); err != nil {
		return fmt.Errorf("create identities table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Create(ctx context.Context, ident *Identity) error {
	if err := prepareCreate(ident, s.now()); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`),
		ident.ID, ident.OrganizationID, ident.Email, ident.CredentialHash, string(ident.Role),
		ident.Active, string(ident.ApprovalState), ident.CreatedAt.UnixNano(), ident.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if _, lookupErr := s.GetByEmail(ctx, ident.Email); lookupErr == nil {
				return ErrEmailTaken
			}
			return fmt.Errorf("%w: duplicate id", ErrInvalidIdentity)
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (*Identity, error) {
	return s.queryOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
}

func (s *SQLStore) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	return s.queryOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = ?`, NormalizeEmail(email))
}

func (s *SQLStore) SetRenewalToken(ctx context.Context, id, token string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE identities SET renewal_token = ?, updated_at = ? WHERE id = ? AND role = ?`),
		token, s.now().UnixNano(), id, string(RoleRecruiter))
	if err != nil {
		return fmt.Errorf("set renewal token: %w", err)
	}
	err = checkRowsAffected(res, ErrNotFound)
	if errors.Is(err, ErrNotFound) {
		// The write matched nothing; tell a missing record from a supervisor.
		if _, lookupErr := s.GetByID(ctx, id); lookupErr == nil {
			return ErrRoleMismatch
		}
	}
	return err
}

func (s *SQLStore) ClearRenewalToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE identities SET renewal_token = NULL, updated_at = ? WHERE id = ?`),
		s.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("clear renewal token: %w", err)
	}
	return checkRowsAffected(res, ErrNotFound)
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, active bool, approval ApprovalState) error {
	if !approval.Valid() {
		return ErrInvalidIdentity
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE identities SET active = ?, approval_state = ?, updated_at = ? WHERE id = ?`),
		active, string(approval), s.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return checkRowsAffected(res, ErrNotFound)
}

func (s *SQLStore) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	if hash == "" {
		return ErrInvalidIdentity
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE identities SET credential_hash = ?, updated_at = ? WHERE id = ?`),
		hash, s.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update credential hash: %w", err)
	}
	return checkRowsAffected(res, ErrNotFound)
}

func (s *SQLStore) queryOne(ctx context.Context, query string, args ...any) (*Identity, error) {
	return scanIdentity(s.db.QueryRowContext(ctx, s.rebind(query), args...))
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(s scanner) (*Identity, error) {
	var (
		ident                Identity
		role, approval       string
		renewal              sql.NullString
		createdAt, updatedAt int64
	)
	err := s.Scan(&ident.ID, &ident.OrganizationID, &ident.Email, &ident.CredentialHash, &role,
		&ident.Active, &approval, &renewal, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	ident.Role = Role(role)
	ident.ApprovalState = ApprovalState(approval)
	ident.RenewalToken = renewal.String
	ident.CreatedAt = time.Unix(0, createdAt).UTC()
	ident.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &ident, nil
}

func checkRowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
