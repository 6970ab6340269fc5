package auth

import (
	"context"
	"errors"
	"fmt"
)

// Service orchestrates the credential and token lifecycle: register,
// login, refresh, logout, and request-time identity resolution.
//
// It owns no state beyond its collaborators. The user record is the
// single source of truth for session validity; no in-process session
// cache exists.
type Service struct {
	users  UserRepository
	issuer *Issuer
}

// NewService creates an auth service from its collaborators.
func NewService(users UserRepository, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginInput is the payload for credential authentication.
type LoginInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	TwoFactorToken string `json:"twoFactorToken,omitempty"`
}

// Register creates a new account.
//
// The role defaults to RoleUser when omitted; an unknown role name is
// rejected with ErrRoleInvalid. Duplicate email or username surfaces as
// ErrEmailExists / ErrUsernameExists. The plaintext password is hashed
// before the record is built and never stored or returned.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if !IsValidRole(role) {
		return nil, ErrRoleInvalid
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a credential pair and starts a session.
//
// All credential failures collapse to ErrInvalidCredentials: the caller
// cannot learn whether the email or the password was wrong. Accounts
// with two-factor enabled additionally require a second-factor token to
// be present; the token value itself is not verified (see package doc).
//
// On success the refresh token hash is stored on the user record,
// implicitly revoking any previous session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if user.TwoFactorEnabled && in.TwoFactorToken == "" {
		return nil, ErrTwoFactorRequired
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, HashToken(pair.RefreshToken)); err != nil {
		return nil, err
	}

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
//
// Cryptographic validity is necessary but not sufficient: the presented
// token must also match the single hash stored on the user record. A
// token that was already rotated away fails with ErrTokenRevoked even
// though its signature and expiry still check out.
//
// The compare and the replacement happen in one conditional store
// operation, so concurrent refreshes with the same token cannot both
// rotate: at most one succeeds.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The account vanished after the token was minted.
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	oldHash := HashToken(refreshToken)
	newHash := HashToken(pair.RefreshToken)
	if err := s.users.RotateRefreshToken(ctx, user.ID, oldHash, newHash); err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout clears the stored refresh token for the user, unconditionally
// invalidating future refresh attempts even if the old token is still
// cryptographically valid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

// Authenticate validates a raw access token and resolves the caller's
// live identity. A token that fails signature, expiry, or purpose checks
// surfaces as ErrTokenInvalid; an account deleted since issuance as
// ErrUserNotFound; a role outside the closed set as ErrRoleNotFound.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, claims.Subject)
}

// Resolve maps a user ID to its live role and permission set.
//
// A missing user fails with ErrUserNotFound. A user whose role is
// absent or no longer a member of the closed role set fails with
// ErrRoleNotFound - an authorisation failure distinct from a
// credential failure.
func (s *Service) Resolve(ctx context.Context, userID string) (*Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !IsValidRole(user.Role) {
		return nil, ErrRoleNotFound
	}

	return &Identity{
		UserID:      user.ID,
		Role:        user.Role,
		Permissions: PermissionsForRole(user.Role),
	}, nil
}

// issuePair mints a fresh access and refresh token for the user.
func (s *Service) issuePair(user *User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// validateRegistration checks registration input shape. Each failure
// wraps ErrValidation so callers can map the whole family to one
// rejection without inspecting messages.
func validateRegistration(in RegisterInput) error {
	switch {
	case !IsValidUsername(in.Username):
		return fmt.Errorf("%w: username must be 3-30 characters (letters, digits, dots, hyphens, underscores)", ErrValidation)
	case !IsValidEmail(in.Email):
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	case !IsValidPassword(in.Password):
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}
