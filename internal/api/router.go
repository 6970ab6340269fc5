package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arborlogic/authcore/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh-token", s.handleRefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			// User administration
			r.Route("/users", func(r chi.Router) {
				r.With(s.requirePermissions(auth.PermViewUsers)).Get("/", s.handleListUsers)
				r.With(s.requirePermissions(auth.PermCreateUser)).Post("/", s.handleCreateUser)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Put("/", s.handleUpdateUser)
					r.With(s.requirePermissions(auth.PermDeleteUser)).Delete("/", s.handleDeleteUser)
				})
			})

			// Audit log queries
			r.With(s.requirePermissions(auth.PermViewAuditLogs)).Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
