package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"authd/internal/audit"
	"authd/internal/auth"
)

// Cookie names for the token pair.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// ─── Request Types ─────────────────────────────────────────────────

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	TenantID  *int64 `json:"tenant_id,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ─── Cookie Helpers ────────────────────────────────────────────────

// setAuthCookies attaches both tokens as httpOnly cookies.
//
// SameSite is strict: the cookies are only sent on same-site navigation,
// which closes off CSRF against the cookie-authenticated endpoints.
func (s *Server) setAuthCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   s.secCfg.Cookie.Domain,
		MaxAge:   int(auth.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Domain:   s.secCfg.Cookie.Domain,
		MaxAge:   int(auth.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   !s.devMode,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both token cookies.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   s.secCfg.Cookie.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   !s.devMode,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleRegister creates a customer account and signs the new user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
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
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	user, pair, err := s.auth.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		TenantID:  req.TenantID,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeConflict(w, "email already in use")
			return
		}
		s.internalError(w, r, "registration failed", err)
		return
	}

	s.auditLog(audit.ActionRegister, "user", formatID(user.ID), formatID(user.ID), nil)
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": user.ID})
}

// handleLogin authenticates by email and password and sets the token cookies.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	user, pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// One message for unknown email and wrong password alike
			writeAuthError(w, "email or password does not match")
			return
		}
		s.internalError(w, r, "login failed", err)
		return
	}

	s.auditLog(audit.ActionLogin, "user", formatID(user.ID), formatID(user.ID), nil)
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]int64{"id": user.ID})
}

// handleSelf returns the authenticated user's current account record.
//
// Unlike the claims, this reads the database, so the response reflects role
// or tenant changes that tokens in flight have not picked up yet.
func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, "authentication required")
		return
	}

	userID, err := claims.SubjectID()
	if err != nil {
		writeUnauthorized(w, "invalid token")
		return
	}

	user, err := s.auth.Self(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			// Valid token for a deleted account
			s.clearAuthCookies(w)
			writeUnauthorized(w, "account no longer exists")
			return
		}
		s.internalError(w, r, "fetching account failed", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleRefresh rotates the refresh token and reissues both cookies.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w, "refresh token required")
		return
	}

	user, pair, err := s.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			s.clearAuthCookies(w)
			writeUnauthorized(w, "invalid or expired refresh token")
			return
		}
		s.internalError(w, r, "token refresh failed", err)
		return
	}

	s.auditLog(audit.ActionRefresh, "user", formatID(user.ID), formatID(user.ID), nil)
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]int64{"id": user.ID})
}

// handleLogout revokes the presented refresh token and clears both cookies.
// Succeeds whether or not the token was still live.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.internalError(w, r, "logout failed", err)
			return
		}
		s.auditLog(audit.ActionLogout, "token", "", "", nil)
	}

	s.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{})
}

// formatID renders an int64 primary key for audit and response metadata.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
