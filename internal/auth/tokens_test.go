package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParseAccessToken(t *testing.T) {
	issuer := NewIssuer(testTokenConfig())
	user := &User{ID: "usr-001", Role: RoleAdmin}

	token, err := issuer.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccessToken() returned empty token")
	}

	claims, err := issuer.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}

	if claims.Subject != "usr-001" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "usr-001")
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("newly issued token should not be expired")
	}
}

func TestIssueAndParseRefreshToken(t *testing.T) {
	cfg := testTokenConfig()
	issuer := NewIssuer(cfg)
	user := &User{ID: "usr-002", Role: RoleUser}

	token, err := issuer.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	claims, err := issuer.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("ParseRefreshToken() error = %v", err)
	}

	if claims.Subject != "usr-002" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "usr-002")
	}

	// Refresh TTL should be much longer than the access TTL
	minExpiry := time.Now().Add(cfg.RefreshTTL - time.Minute)
	if claims.ExpiresAt.Time.Before(minExpiry) {
		t.Errorf("refresh expiry %v earlier than expected", claims.ExpiresAt.Time)
	}
}

func TestParseToken_CrossPurposeSecretFails(t *testing.T) {
	issuer := NewIssuer(testTokenConfig())
	user := &User{ID: "usr-003", Role: RoleUser}

	access, err := issuer.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	refresh, err := issuer.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := issuer.ParseRefreshToken(access); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("access token parsed with refresh secret: err = %v, want ErrTokenInvalid", err)
	}
	if _, err := issuer.ParseAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token parsed with access secret: err = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	issuer := NewIssuer(testTokenConfig())
	user := &User{ID: "usr-004", Role: RoleUser}

	token, err := issuer.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	other := NewIssuer(TokenConfig{
		AccessSecret:  "a-completely-different-access-secret-value",
		RefreshSecret: "a-completely-different-refresh-secret-value",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	if _, err := other.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseAccessToken() with wrong secret: err = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTTL = -time.Minute // already expired at issuance
	issuer := NewIssuer(cfg)

	token, err := issuer.IssueAccessToken(&User{ID: "usr-005", Role: RoleUser})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := issuer.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseAccessToken() on expired token: err = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	issuer := NewIssuer(testTokenConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-valid-jwt"},
		{"two segments", "abc.def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.ParseAccessToken(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseAccessToken(%q): err = %v, want ErrTokenInvalid", tt.token, err)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("token-one")
	h2 := HashToken("token-one")
	h3 := HashToken("token-two")

	if h1 != h2 {
		t.Error("HashToken() should be deterministic")
	}
	if h1 == h3 {
		t.Error("different tokens should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 == "token-one" {
		t.Error("hash should not equal the raw token")
	}
}
