package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenConfig carries the signing material and lifetimes for both token
// purposes. It is constructed once at startup from the loaded config and
// passed by reference; secrets are never read from the environment at
// request time.
//
// AccessSecret and RefreshSecret must differ: a token minted for one
// purpose must never validate against the other's secret.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims extends JWT standard claims with the subject's role.
// Subject holds the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role,omitempty"`
}

// Issuer mints and validates signed tokens for both purposes.
//
// Access tokens are short-lived and validated by signature only (no DB
// hit). Refresh tokens are long-lived; cryptographic validity is
// necessary but not sufficient — the caller must also compare against
// the hash stored on the user record.
type Issuer struct {
	cfg TokenConfig
}

// NewIssuer creates a token issuer from the given configuration.
func NewIssuer(cfg TokenConfig) *Issuer {
	return &Issuer{cfg: cfg}
}

// IssueAccessToken creates a signed JWT access token for a user.
func (i *Issuer) IssueAccessToken(user *User) (string, error) {
	return i.issue(user, i.cfg.AccessSecret, i.cfg.AccessTTL)
}

// IssueRefreshToken creates a signed JWT refresh token for a user.
// The caller is responsible for persisting HashToken(token) on the
// user record; issuance itself has no side effects.
func (i *Issuer) IssueRefreshToken(user *User) (string, error) {
	return i.issue(user, i.cfg.RefreshSecret, i.cfg.RefreshTTL)
}

func (i *Issuer) issue(user *User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Role: user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a JWT against the access secret and returns
// its claims. Fails with ErrTokenInvalid on bad signature, malformed
// structure, or expiry.
func (i *Issuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, i.cfg.AccessSecret)
}

// ParseRefreshToken validates a JWT against the refresh secret and
// returns its claims. A cryptographically valid refresh token may still
// have been superseded; see Service.Refresh.
func (i *Issuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, i.cfg.RefreshSecret)
}

// parseToken validates and parses a JWT, returning the claims.
// It checks the signature, expiry, and required fields.
func parseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}

// HashToken computes the SHA-256 hash of a raw token string for storage.
// Raw refresh tokens are never stored — only their hashes.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
