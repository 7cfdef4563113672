package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Error represents a structured error response.
type Error struct {
	Status  int               `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Ref     string            `json:"ref,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

// Common error codes.
const (
	ErrCodeAuth         = "auth_error"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeValidationError writes a 400 response carrying per-field messages.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, Error{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeValidation,
		Message: "validation failed",
		Fields:  fields,
	})
}

// writeAuthError writes a credential failure. Login reports 400 so browsers
// treat a mismatch like any other rejected form input; token-bearing
// endpoints report 401 via writeUnauthorized instead.
func writeAuthError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeAuth, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeConflict writes a conflict error response. Conflicts surface as 400
// so that clients treat a taken email the same way as any other rejected
// input on the registration form.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeConflict, message)
}

// internalError writes a 500 response carrying a correlation reference.
//
// The underlying error is logged against the reference but only included in
// the response body in development mode; production clients get the ref
// alone to quote in support requests.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ref := uuid.NewString()

	s.logger.Error(msg,
		"error", err,
		"ref", ref,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	resp := Error{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Ref:     ref,
	}
	if s.devMode && err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}
