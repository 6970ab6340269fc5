package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arborlogic/authcore/internal/audit"
	"github.com/arborlogic/authcore/internal/auth"
)

// refreshRequest is the request body for POST /auth/refresh-token.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRegister creates a new account from self-service registration.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.authSvc.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, auth.ErrRoleInvalid):
			writeBadRequest(w, "invalid role: must be user, moderator, or admin")
		case errors.Is(err, auth.ErrEmailExists):
			writeBadRequest(w, "email already registered")
		case errors.Is(err, auth.ErrUsernameExists):
			writeBadRequest(w, "username already taken")
		default:
			s.logger.Error("register failed", "error", err)
			writeInternalError(w, "failed to register user")
		}
		return
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	s.auditLog(audit.ActionRegister, "user", user.ID, user.ID, map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})
	s.publishEvent(audit.ActionRegister, map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	})

	writeJSON(w, http.StatusCreated, user)
}

// handleLogin authenticates a credential pair and returns a token pair.
//
// Unknown email and wrong password produce the same response so the
// endpoint cannot be used to probe which addresses have accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	pair, err := s.authSvc.Login(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeBadRequest(w, "invalid credentials")
		case errors.Is(err, auth.ErrTwoFactorRequired):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "two-factor token required")
		default:
			s.logger.Error("login failed", "error", err)
			writeInternalError(w, "failed to log in")
		}
		return
	}

	s.auditLog(audit.ActionLogin, "user", "", "", map[string]any{
		"email": in.Email,
	})
	s.publishEvent(audit.ActionLogin, map[string]any{
		"email": in.Email,
	})

	writeJSON(w, http.StatusOK, pair)
}

// handleRefreshToken exchanges a refresh token for a fresh token pair.
//
// A token that is cryptographically valid but no longer the stored one
// has been superseded or revoked; that attempt is audited as token
// reuse before the 403 goes out.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refreshToken is required")
		return
	}

	pair, err := s.authSvc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenRevoked):
			s.auditLog(audit.ActionTokenReuse, "user", "", "", nil)
			s.publishEvent(audit.ActionTokenReuse, nil)
			writeForbidden(w, "refresh token revoked")
		case errors.Is(err, auth.ErrTokenInvalid):
			writeForbidden(w, "invalid refresh token")
		default:
			s.logger.Error("token refresh failed", "error", err)
			writeInternalError(w, "failed to refresh token")
		}
		return
	}

	s.auditLog(audit.ActionTokenRefresh, "user", "", "", nil)

	writeJSON(w, http.StatusOK, pair)
}

// handleLogout invalidates the caller's session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	if err := s.authSvc.Logout(r.Context(), identity.UserID); err != nil {
		s.logger.Error("logout failed", "user_id", identity.UserID, "error", err)
		writeInternalError(w, "failed to log out")
		return
	}

	s.logger.Info("user logged out", "user_id", identity.UserID)
	s.auditLog(audit.ActionLogout, "user", identity.UserID, identity.UserID, nil)
	s.publishEvent(audit.ActionLogout, map[string]any{
		"user_id": identity.UserID,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleMe returns the caller's resolved identity and permission set.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, identityFromContext(r.Context()))
}
