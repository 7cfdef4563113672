package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"authd/internal/auth"
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

		// Auth endpoints. Register and login are open; refresh and logout
		// authenticate via the refresh token cookie inside the handler.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticateMiddleware)
				r.Get("/self", s.handleSelf)
			})
		})

		// Tenant directory reads are public; writes are admin only
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", s.handleListTenants)
			r.Get("/{id}", s.handleGetTenant)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticateMiddleware)
				r.Use(s.requireRole(auth.RoleAdmin))
				r.Post("/", s.handleCreateTenant)
				r.Patch("/{id}", s.handleUpdateTenant)
				r.Delete("/{id}", s.handleDeleteTenant)
			})
		})

		// User management is admin only
		r.Route("/users", func(r chi.Router) {
			r.Use(s.authenticateMiddleware)
			r.Use(s.requireRole(auth.RoleAdmin))

			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Get("/{id}", s.handleGetUser)
			r.Patch("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		// Audit trail is admin only
		r.Route("/audit", func(r chi.Router) {
			r.Use(s.authenticateMiddleware)
			r.Use(s.requireRole(auth.RoleAdmin))

			r.Get("/", s.handleListAuditLogs)
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
