package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domain "authservice/backend/internal/domain/auth"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repository uses.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository persists users in SQLite. Timestamps are stored as
// RFC 3339 text in UTC.
type UserRepository struct {
	db DBTX
}

// NewUserRepository constructs a repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// FindByEmail fetches a user by email, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
SELECT id, email, full_name, password_hash, disabled, created_at, updated_at
FROM users WHERE email = ?
`
	var (
		u                    domain.User
		disabled             int
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, normalize(email)).Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &disabled, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("operation", "find user by email").Wrap(err)
	}
	u.Disabled = disabled != 0
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Save inserts a new user. The UNIQUE NOCASE constraint on email makes the
// uniqueness check atomic with the insert.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
INSERT INTO users (id, email, full_name, password_hash, disabled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`
	saved := *user
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, query,
		saved.ID,
		saved.Email,
		saved.FullName,
		saved.PasswordHash,
		boolInt(saved.Disabled),
		formatTime(saved.CreatedAt),
		formatTime(saved.UpdatedAt),
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
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(updatedAt), id,
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "update password").Wrap(err)
	}
	return requireRow(res)
}

// SetDisabled updates the account-state flag.
func (r *UserRepository) SetDisabled(ctx context.Context, email string, disabled bool, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET disabled = ?, updated_at = ? WHERE email = ?`,
		boolInt(disabled), formatTime(updatedAt), normalize(email),
	)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "set disabled").Wrap(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").Wrap(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary result code only; extended codes are off for this connection.
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, oops.Code("USER_QUERY_FAILED").With("value", s).Wrap(err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
