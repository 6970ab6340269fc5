package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user account persistence.
//
// The refresh-token methods implement single-session semantics: the
// user record holds at most one live refresh token hash, and
// RotateRefreshToken replaces it only when the caller presents the
// current value (compare-and-swap).
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	// SetRefreshToken unconditionally stores a token hash, replacing
	// whatever was there. Used on login.
	SetRefreshToken(ctx context.Context, id, tokenHash string) error

	// ClearRefreshToken removes the stored token hash. Used on logout.
	ClearRefreshToken(ctx context.Context, id string) error

	// RotateRefreshToken atomically replaces oldHash with newHash in a
	// single conditional update. Returns ErrTokenRevoked if the stored
	// value no longer equals oldHash: under concurrent refresh calls
	// presenting the same token, exactly one rotation wins.
	RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) error
}

const userColumns = "id, username, email, password_hash, role, is_verified, two_factor_enabled, two_factor_secret, refresh_token, created_at, updated_at"

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a new user account. The ID is generated if empty.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		nullString(string(user.Role)), boolToInt(user.IsVerified),
		boolToInt(user.TwoFactorEnabled), nullString(user.TwoFactorSecret),
		nullString(user.RefreshTokenHash), now, now,
	)
	if err != nil {
		if col, ok := uniqueViolationColumn(err); ok {
			if col == "email" {
				return ErrEmailExists
			}
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by their email address.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// GetByUsername retrieves a user by their username.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// List returns all users ordered by creation date.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Update modifies a user's mutable fields (username, email, role,
// is_verified, two_factor_enabled).
func (r *SQLiteUserRepository) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC().Format(time.RFC3339)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, role = ?, is_verified = ?, two_factor_enabled = ?, updated_at = ? WHERE id = ?`,
		user.Username, user.Email, nullString(string(user.Role)),
		boolToInt(user.IsVerified), boolToInt(user.TwoFactorEnabled), now, user.ID,
	)
	if err != nil {
		if col, ok := uniqueViolationColumn(err); ok {
			if col == "email" {
				return ErrEmailExists
			}
			return ErrUsernameExists
		}
		return fmt.Errorf("updating user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword changes a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user account by ID.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// SetRefreshToken stores a refresh token hash, replacing any previous
// value. The previous session (if any) is implicitly revoked.
func (r *SQLiteUserRepository) SetRefreshToken(ctx context.Context, id, tokenHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?",
		tokenHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("setting refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearRefreshToken removes the stored refresh token hash, revoking the
// live session regardless of the token's cryptographic validity.
func (r *SQLiteUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = NULL, updated_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken replaces the stored token hash with newHash only if
// it currently equals oldHash. The compare and the swap are a single
// conditional UPDATE, so two concurrent rotations presenting the same
// token cannot both succeed: the loser's WHERE clause no longer matches
// and it observes ErrTokenRevoked.
func (r *SQLiteUserRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ? AND refresh_token = ?",
		newHash, now, id, oldHash,
	)
	if err != nil {
		return fmt.Errorf("rotating refresh token: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrTokenRevoked
	}
	return nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUser scans a user from any scanner (Row or Rows).
func scanUser(s scanner) (*User, error) {
	var u User
	var role, twoFactorSecret, refreshToken sql.NullString
	var isVerified, twoFactorEnabled int
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&role, &isVerified, &twoFactorEnabled, &twoFactorSecret,
		&refreshToken, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if role.Valid {
		u.Role = Role(role.String)
	}
	u.IsVerified = isVerified != 0
	u.TwoFactorEnabled = twoFactorEnabled != 0
	if twoFactorSecret.Valid {
		u.TwoFactorSecret = twoFactorSecret.String
	}
	if refreshToken.Valid {
		u.RefreshTokenHash = refreshToken.String
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// uniqueViolationColumn extracts the violated column from a SQLite
// UNIQUE constraint error. SQLite reports "UNIQUE constraint failed:
// users.email", which lets registration distinguish a duplicate email
// from a duplicate username.
func uniqueViolationColumn(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	const marker = "UNIQUE constraint failed: "
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	failed := msg[idx+len(marker):]
	if dot := strings.Index(failed, "."); dot >= 0 {
		failed = failed[dot+1:]
	}
	// Trim anything after the column name (multi-column constraints).
	if comma := strings.IndexAny(failed, ", "); comma >= 0 {
		failed = failed[:comma]
	}
	return failed, true
}
