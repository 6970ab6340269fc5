package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 3-30 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,30}$`)

// emailPattern is a pragmatic format check, not full RFC 5322.
// Uniqueness and deliverability are enforced elsewhere.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 6

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 3-30 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsValidEmail checks if an email address is plausibly well-formed.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPassword checks if a password meets the minimum length requirement.
func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLength
}

// Role represents an authorisation tier in the system.
// The set is closed: roles are seeded knowledge, not data.
type Role string

const (
	// RoleUser is a standard account with no administrative permissions.
	RoleUser Role = "user"

	// RoleModerator can view the user directory but cannot create or
	// delete accounts.
	RoleModerator Role = "moderator"

	// RoleAdmin has full control: user management, deletion, audit access.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of assignable roles.
var ValidRoles = []Role{RoleUser, RoleModerator, RoleAdmin}

// IsValidRole returns true if the role is a member of the closed role set.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an account record.
//
// RefreshTokenHash holds the SHA-256 hash of the single currently-valid
// refresh token, or empty when no session is live. At most one refresh
// token is valid per user at any time.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"` // never serialised
	Role             Role      `json:"role,omitempty"`
	IsVerified       bool      `json:"is_verified"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorSecret  string    `json:"-"` // never serialised
	RefreshTokenHash string    `json:"-"` // never serialised
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Identity is the resolved security principal attached to a request
// after the bearer token has been verified.
type Identity struct {
	UserID      string       `json:"user_id"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Sentinel errors for auth operations.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoleInvalid        = errors.New("invalid role specified")
	ErrRoleNotFound       = errors.New("role not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrTwoFactorRequired  = errors.New("two-factor token required")
)
