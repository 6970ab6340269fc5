package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arborlogic/authcore/internal/audit"
	"github.com/arborlogic/authcore/internal/auth"
)

func TestListAuditLogs_PermissionGate(t *testing.T) {
	_, router, _ := testServer(t)
	registerUser(t, router, "plain", auth.RoleUser)
	registerUser(t, router, "mod", auth.RoleModerator)
	userPair := loginUser(t, router, "plain")
	modPair := loginUser(t, router, "mod")

	// Only admins hold view_audit_logs
	for name, token := range map[string]string{
		"user":      userPair.AccessToken,
		"moderator": modPair.AccessToken,
	} {
		req := authedRequest(http.MethodGet, "/api/v1/audit", "", token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("%s status = %d, want %d", name, w.Code, http.StatusForbidden)
		}
	}
}

func TestListAuditLogs(t *testing.T) {
	_, router, db := testServer(t)
	registerUser(t, router, "root", auth.RoleAdmin)
	adminPair := loginUser(t, router, "root")

	repo := audit.NewSQLiteRepository(db)
	entries := []*audit.AuditLog{
		{Action: audit.ActionLogin, EntityType: "user", UserID: "usr-aaaa", Source: "api"},
		{Action: audit.ActionLogout, EntityType: "user", UserID: "usr-aaaa", Source: "api"},
		{Action: audit.ActionTokenReuse, EntityType: "user", UserID: "usr-bbbb", Source: "api"},
	}
	for _, e := range entries {
		if err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	t.Run("lists all entries", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/v1/audit", "", adminPair.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var result audit.ListResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if result.Total != 3 {
			t.Errorf("total = %d, want 3", result.Total)
		}
	})

	t.Run("filters by action", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/v1/audit?action=token_reuse", "", adminPair.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var result audit.ListResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Logs) == 1 && result.Logs[0].Action != audit.ActionTokenReuse {
			t.Errorf("action = %q, want %q", result.Logs[0].Action, audit.ActionTokenReuse)
		}
	})

	t.Run("filters by user", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/v1/audit?user_id=usr-aaaa", "", adminPair.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var result audit.ListResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if result.Total != 2 {
			t.Errorf("total = %d, want 2", result.Total)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/api/v1/audit?limit=1", "", adminPair.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var result audit.ListResult
		if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(result.Logs) != 1 {
			t.Errorf("len(logs) = %d, want 1", len(result.Logs))
		}
	})
}

func TestAuditLog_BestEffort(t *testing.T) {
	srv, _, _ := testServer(t)

	// Filling the channel beyond capacity must not block the caller
	for i := 0; i < auditChanSize+10; i++ {
		srv.auditLog(audit.ActionLogin, "user", "", "", nil)
	}
}

func TestDrainAuditLog_WritesQueuedEntries(t *testing.T) {
	srv, _, db := testServer(t)

	srv.auditLog(audit.ActionLogin, "user", "usr-cccc", "usr-cccc", map[string]any{"ip": "10.0.0.1"})
	srv.auditLog(audit.ActionLogout, "user", "usr-cccc", "usr-cccc", nil)

	// A cancelled context makes the drainer flush the queue and return
	drainCtx, drainCancel := context.WithCancel(context.Background())
	drainCancel()

	done := make(chan struct{})
	go func() {
		srv.drainAuditLog(drainCtx)
		close(done)
	}()
	<-done

	repo := audit.NewSQLiteRepository(db)
	result, err := repo.List(context.Background(), audit.Filter{UserID: "usr-cccc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("total = %d, want 2", result.Total)
	}
}
