package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arborlogic/authcore/internal/audit"
	"github.com/arborlogic/authcore/internal/auth"
)

type updateUserRequest struct {
	Username *string    `json:"username,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Password *string    `json:"password,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
}

// handleListUsers returns all user accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleCreateUser creates a user account on behalf of an administrator.
// Unlike self-service registration the requested role is honoured, so an
// admin can provision moderator or admin accounts directly.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	identity := identityFromContext(r.Context())

	user, err := s.authSvc.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, auth.ErrRoleInvalid):
			writeBadRequest(w, "invalid role: must be user, moderator, or admin")
		case errors.Is(err, auth.ErrEmailExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrUsernameExists):
			writeConflict(w, "username already taken")
		default:
			s.logger.Error("create user failed", "error", err)
			writeInternalError(w, "failed to create user")
		}
		return
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role, "created_by", identity.UserID)
	s.auditLog(audit.ActionRegister, "user", user.ID, identity.UserID, map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})

	writeJSON(w, http.StatusCreated, user)
}

// handleGetUser returns a single user by ID. Admins can read any record;
// everyone else only their own.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity := identityFromContext(r.Context())

	if id != identity.UserID && identity.Role != auth.RoleAdmin {
		writeForbidden(w, "cannot view another user's account")
		return
	}

	user, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user failed", "error", err)
		writeInternalError(w, "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser modifies a user's mutable fields.
//
// Non-admins can only update their own account. Role changes are
// admin-only, and admins cannot change their own role.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity := identityFromContext(r.Context())

	if id != identity.UserID && identity.Role != auth.RoleAdmin {
		writeForbidden(w, "cannot modify another user's account")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user for update failed", "error", err)
		writeInternalError(w, "failed to update user")
		return
	}

	if req.Role != nil {
		if identity.Role != auth.RoleAdmin {
			writeForbidden(w, "only admins can change roles")
			return
		}
		if id == identity.UserID && *req.Role != identity.Role {
			writeForbidden(w, "cannot change your own role")
			return
		}
		if !auth.IsValidRole(*req.Role) {
			writeBadRequest(w, "invalid role: must be user, moderator, or admin")
			return
		}
		user.Role = *req.Role
	}

	if req.Username != nil {
		if !auth.IsValidUsername(*req.Username) {
			writeBadRequest(w, "invalid username")
			return
		}
		user.Username = *req.Username
	}
	if req.Email != nil {
		if !auth.IsValidEmail(*req.Email) {
			writeBadRequest(w, "invalid email address")
			return
		}
		user.Email = *req.Email
	}

	var passwordHash string
	if req.Password != nil {
		if !auth.IsValidPassword(*req.Password) {
			writeBadRequest(w, "password too short")
			return
		}
		var err error
		passwordHash, err = auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("hash password for update failed", "error", err)
			writeInternalError(w, "failed to update user")
			return
		}
	}

	if err := s.userRepo.Update(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeConflict(w, "email already registered")
		case errors.Is(err, auth.ErrUsernameExists):
			writeConflict(w, "username already taken")
		default:
			s.logger.Error("update user failed", "error", err)
			writeInternalError(w, "failed to update user")
		}
		return
	}

	if passwordHash != "" {
		if err := s.userRepo.UpdatePassword(r.Context(), id, passwordHash); err != nil {
			s.logger.Error("update password failed", "error", err)
			writeInternalError(w, "failed to update user")
			return
		}
	}

	s.logger.Info("user updated", "user_id", id, "updated_by", identity.UserID)
	s.auditLog(audit.ActionUpdate, "user", id, identity.UserID, nil)

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user account.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity := identityFromContext(r.Context())

	// Cannot delete yourself
	if id == identity.UserID {
		writeForbidden(w, "cannot delete your own account")
		return
	}

	user, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user for delete failed", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	if err := s.userRepo.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete user failed", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	// The stored refresh token went with the row, so any outstanding
	// session for the user is already dead.
	s.logger.Info("user deleted", "user_id", id, "deleted_by", identity.UserID)
	s.auditLog(audit.ActionDelete, "user", id, identity.UserID, map[string]any{
		"username": user.Username,
	})
	s.publishEvent(audit.ActionDelete, map[string]any{
		"user_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "user deleted successfully",
	})
}
