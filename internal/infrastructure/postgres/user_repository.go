package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	domain "authservice/backend/internal/domain/auth"
)

// poolIface is the slice of *pgxpool.Pool the repository needs, so tests can
// substitute pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByEmail fetches a user by email, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
SELECT id, email, full_name, password_hash, disabled, created_at, updated_at
FROM users WHERE LOWER(email) = $1
`
	row := r.pool.QueryRow(ctx, query, normalize(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "find user by email").Wrap(err)
	}
	return user, nil
}

// Save inserts a new user record. The unique index on LOWER(email) makes the
// uniqueness check atomic with the insert.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, email, full_name, password_hash, disabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	saved := *user
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query,
		saved.ID,
		saved.Email,
		saved.FullName,
		saved.PasswordHash,
		saved.Disabled,
		saved.CreatedAt,
		saved.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, oops.Code("USER_INSERT_FAILED").With("operation", "insert user").Wrap(err)
	}
	return &saved, nil
}

// UpdatePassword updates the stored password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `
UPDATE users
SET password_hash = $2, updated_at = $3
WHERE id = $1
`
	ct, err := r.pool.Exec(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "update password").Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetDisabled updates the account-state flag.
func (r *UserRepository) SetDisabled(ctx context.Context, email string, disabled bool, updatedAt time.Time) error {
	const query = `
UPDATE users
SET disabled = $2, updated_at = $3
WHERE LOWER(email) = $1
`
	ct, err := r.pool.Exec(ctx, query, normalize(email), disabled, updatedAt)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "set disabled").Wrap(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.Disabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
