package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"authd/internal/audit"
	"authd/internal/auth"
)

// ─── Request Types ─────────────────────────────────────────────────

type createUserRequest struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      auth.Role `json:"role,omitempty"`
	TenantID  *int64    `json:"tenant_id,omitempty"`
}

type updateUserRequest struct {
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Password  *string    `json:"password,omitempty"`
	Role      *auth.Role `json:"role,omitempty"`
	TenantID  *int64     `json:"tenant_id,omitempty"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns all user accounts. Admin only.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list users failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleGetUser returns a single user account. Admin only.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.internalError(w, r, "get user failed", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleCreateUser creates a user with an explicit role. Admin only; this is
// the path for creating managers and admins, which self-registration never
// produces.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Role == "" {
		req.Role = auth.RoleCustomer
	}

	fields := map[string]string{}
	if req.FirstName == "" {
		fields["first_name"] = "first name is required"
	}
	if req.LastName == "" {
		fields["last_name"] = "last name is required"
	}
	if !auth.IsValidEmail(req.Email) {
		fields["email"] = "a valid email address is required"
	}
	if !auth.IsValidPassword(req.Password) {
		fields["password"] = "password must be at least 8 characters"
	}
	if !auth.IsValidRole(req.Role) {
		fields["role"] = "role must be customer, manager, or admin"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.internalError(w, r, "hash password failed", err)
		return
	}

	user := &auth.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		TenantID:     req.TenantID,
	}

	if err := s.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeConflict(w, "email already in use")
			return
		}
		s.internalError(w, r, "create user failed", err)
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("user created", "user_id", user.ID, "role", user.Role, "created_by", claims.Subject)
	s.auditLog(audit.ActionCreate, "user", formatID(user.ID), claims.Subject, map[string]any{
		"role": user.Role,
	})

	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateUser applies a partial update to a user account. Admin only.
//
// A role change takes effect in the database immediately, but tokens already
// issued keep their old role claim until the account next refreshes.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // field-by-field patch application
	id, ok := pathID(w, r)
	if !ok {
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
		s.internalError(w, r, "get user failed", err)
		return
	}

	changed := map[string]any{}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
		changed["first_name"] = true
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
		changed["last_name"] = true
	}
	if req.Email != nil {
		if !auth.IsValidEmail(*req.Email) {
			writeValidationError(w, map[string]string{"email": "a valid email address is required"})
			return
		}
		user.Email = *req.Email
		changed["email"] = true
	}
	if req.Password != nil {
		if !auth.IsValidPassword(*req.Password) {
			writeValidationError(w, map[string]string{"password": "password must be at least 8 characters"})
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.internalError(w, r, "hash password failed", err)
			return
		}
		user.PasswordHash = hash
		changed["password"] = true
	}
	if req.Role != nil {
		if !auth.IsValidRole(*req.Role) {
			writeValidationError(w, map[string]string{"role": "role must be customer, manager, or admin"})
			return
		}
		user.Role = *req.Role
		changed["role"] = string(*req.Role)
	}
	if req.TenantID != nil {
		user.TenantID = req.TenantID
		changed["tenant_id"] = *req.TenantID
	}

	if err := s.userRepo.Update(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeConflict(w, "email already in use")
			return
		}
		s.internalError(w, r, "update user failed", err)
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog(audit.ActionUpdate, "user", formatID(user.ID), claims.Subject, changed)

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user account. Admin only. The account's refresh
// token records cascade, so outstanding refresh tokens die with it.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	claims := claimsFromContext(r.Context())
	if claims.Subject == formatID(id) {
		writeBadRequest(w, "cannot delete your own account")
		return
	}

	if err := s.userRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.internalError(w, r, "delete user failed", err)
		return
	}

	s.auditLog(audit.ActionDelete, "user", formatID(id), claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
