package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"authd/internal/audit"
	"authd/internal/auth"
)

// ─── Request Types ─────────────────────────────────────────────────

type createTenantRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type updateTenantRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListTenants returns all tenants. Public: the tenant directory is
// readable without authentication.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenantRepo.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list tenants failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tenants": tenants,
		"count":   len(tenants),
	})
}

// handleGetTenant returns a single tenant by ID.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tenant, err := s.tenantRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrTenantNotFound) {
			writeNotFound(w, "tenant not found")
			return
		}
		s.internalError(w, r, "get tenant failed", err)
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

// handleCreateTenant creates a new tenant. Admin only.
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name == "" {
		writeValidationError(w, map[string]string{"name": "name is required"})
		return
	}

	tenant := &auth.Tenant{
		Name:    req.Name,
		Address: req.Address,
	}
	if err := s.tenantRepo.Create(r.Context(), tenant); err != nil {
		s.internalError(w, r, "create tenant failed", err)
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog(audit.ActionCreate, "tenant", formatID(tenant.ID), claims.Subject, map[string]any{
		"name": tenant.Name,
	})

	writeJSON(w, http.StatusCreated, tenant)
}

// handleUpdateTenant applies a partial update to a tenant. Admin only.
func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	tenant, err := s.tenantRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrTenantNotFound) {
			writeNotFound(w, "tenant not found")
			return
		}
		s.internalError(w, r, "get tenant failed", err)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			writeValidationError(w, map[string]string{"name": "name cannot be empty"})
			return
		}
		tenant.Name = *req.Name
	}
	if req.Address != nil {
		tenant.Address = *req.Address
	}

	if err := s.tenantRepo.Update(r.Context(), tenant); err != nil {
		s.internalError(w, r, "update tenant failed", err)
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog(audit.ActionUpdate, "tenant", formatID(tenant.ID), claims.Subject, nil)

	writeJSON(w, http.StatusOK, tenant)
}

// handleDeleteTenant removes a tenant. Admin only. Users that referenced it
// are detached, not deleted.
func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.tenantRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrTenantNotFound) {
			writeNotFound(w, "tenant not found")
			return
		}
		s.internalError(w, r, "delete tenant failed", err)
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog(audit.ActionDelete, "tenant", formatID(id), claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// pathID parses the {id} URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
