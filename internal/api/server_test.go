package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arborlogic/authcore/internal/audit"
	"github.com/arborlogic/authcore/internal/auth"
	"github.com/arborlogic/authcore/internal/infrastructure/config"
	"github.com/arborlogic/authcore/internal/infrastructure/logging"
)

// testServer creates a Server backed by a temp-file SQLite database with
// real repositories and a real auth service.
func testServer(t *testing.T) (*Server, http.Handler, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	users := auth.NewUserRepository(db)
	issuer := auth.NewIssuer(auth.TokenConfig{
		AccessSecret:  "access-secret-for-tests-0123456789abcdef",
		RefreshSecret: "refresh-secret-for-tests-0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	svc := auth.NewService(users, issuer)
	auditRepo := audit.NewSQLiteRepository(db)

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:    log,
		Auth:      svc,
		Users:     users,
		AuditRepo: auditRepo,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, srv.buildRouter(), db
}

// setupTestDB creates a temp-file SQLite database with the users and
// audit_logs schemas applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Single connection mirrors production pool config and avoids
	// SQLITE_BUSY in concurrent tests.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT,
			is_verified INTEGER NOT NULL DEFAULT 1,
			two_factor_enabled INTEGER NOT NULL DEFAULT 0,
			two_factor_secret TEXT,
			refresh_token TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE INDEX idx_users_role ON users(role);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			user_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE INDEX idx_audit_logs_action ON audit_logs(action);
		CREATE INDEX idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
		CREATE INDEX idx_audit_logs_created ON audit_logs(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("applying test schema: %v", err)
	}

	return db
}

// registerUser creates an account through the public registration endpoint.
func registerUser(t *testing.T, router http.Handler, username string, role auth.Role) *auth.User {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"test-password","role":%q}`,
		username, username+"@example.com", role)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s status = %d, want %d; body: %s", username, w.Code, http.StatusCreated, w.Body.String())
	}

	var user auth.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("unmarshal registered user: %v", err)
	}
	return &user
}

// loginUser authenticates through the login endpoint and returns the token pair.
func loginUser(t *testing.T, router http.Handler, username string) *auth.TokenPair {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"test-password"}`, username+"@example.com")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s status = %d, want %d; body: %s", username, w.Code, http.StatusOK, w.Body.String())
	}

	var pair auth.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("unmarshal token pair: %v", err)
	}
	return &pair
}

// authedRequest builds a request carrying a bearer access token.
func authedRequest(method, target, body, accessToken string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestHealth_ContentType(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestNotFound(t *testing.T) {
	_, router, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Lifecycle Tests ───────────────────────────────────────────────

func TestServer_StartAndClose(t *testing.T) {
	srv, _, _ := testServer(t)

	// Use a specific port for this test
	srv.cfg.Port = 19080

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	addr := fmt.Sprintf("127.0.0.1:%d", srv.cfg.Port)
	resp, err := http.Get("http://" + addr + "/api/v1/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health check status = %d, want 200", resp.StatusCode)
	}

	if err := srv.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error: %v", err)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}

	// Verify server stopped by trying to connect (should fail)
	time.Sleep(100 * time.Millisecond)
	if _, err := http.Get("http://" + addr + "/api/v1/health"); err == nil {
		t.Error("server still responding after Close()")
	}
}

func TestServer_HealthCheckNotStarted(t *testing.T) {
	srv, _, _ := testServer(t)

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check error before Start()")
	}
}

func TestNew_MissingDeps(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if _, err := New(Deps{}); err == nil {
		t.Error("expected error for missing logger")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("expected error for missing auth service")
	}
}
