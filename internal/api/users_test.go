package api

import (
	"net/http"
	"testing"
)

func TestUsers_AdminOnly(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "customer@example.com", "customer")
	seedUser(t, db, "manager@example.com", "manager")
	customer := loginAs(t, router, "customer@example.com")
	manager := loginAs(t, router, "manager@example.com")

	if rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list status = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, customer); rec.Code != http.StatusForbidden {
		t.Errorf("customer list status = %d, want 403", rec.Code)
	}
	// Manager outranks customer but user management is admin territory
	if rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, manager); rec.Code != http.StatusForbidden {
		t.Errorf("manager list status = %d, want 403", rec.Code)
	}
}

func TestUsers_CreateWithRole(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	admin := loginAs(t, router, "admin@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users/", map[string]any{
		"first_name": "Mary",
		"last_name":  "Manager",
		"email":      "mary@example.com",
		"password":   "hunter2hunter2",
		"role":       "manager",
	}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["role"] != "manager" {
		t.Errorf("role = %v, want manager", body["role"])
	}

	// Unknown role is rejected
	bad := doJSON(t, router, http.MethodPost, "/api/v1/users/", map[string]any{
		"first_name": "Bad",
		"last_name":  "Role",
		"email":      "bad@example.com",
		"password":   "hunter2hunter2",
		"role":       "superuser",
	}, admin)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("bad role status = %d, want 400", bad.Code)
	}
}

func TestUsers_List(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	seedUser(t, db, "alice@example.com", "customer")
	admin := loginAs(t, router, "admin@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestUsers_RoleChange(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	alice := seedUser(t, db, "alice@example.com", "customer")
	admin := loginAs(t, router, "admin@example.com")
	aliceCookies := loginAs(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/users/"+formatID(alice.ID),
		map[string]string{"role": "admin"}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Alice's outstanding access token still carries the customer role, so
	// admin routes stay closed until she refreshes
	if rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, aliceCookies); rec.Code != http.StatusForbidden {
		t.Errorf("pre-refresh list status = %d, want 403 (stale claim)", rec.Code)
	}

	refreshed := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, aliceCookies)
	if refreshed.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", refreshed.Code)
	}

	if rec := doJSON(t, router, http.MethodGet, "/api/v1/users/", nil, refreshed.Result().Cookies()); rec.Code != http.StatusOK {
		t.Errorf("post-refresh list status = %d, want 200", rec.Code)
	}
}

func TestUsers_UpdatePassword(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	alice := seedUser(t, db, "alice@example.com", "customer")
	admin := loginAs(t, router, "admin@example.com")

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/users/"+formatID(alice.ID),
		map[string]string{"password": "new-password-123"}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rec.Code)
	}

	// Old password no longer works, new one does
	old := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "test-password"}, nil)
	if old.Code != http.StatusBadRequest {
		t.Errorf("old password login status = %d, want 400", old.Code)
	}
	fresh := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "new-password-123"}, nil)
	if fresh.Code != http.StatusOK {
		t.Errorf("new password login status = %d, want 200", fresh.Code)
	}
}

func TestUsers_DeleteRevokesTokens(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	alice := seedUser(t, db, "alice@example.com", "customer")
	admin := loginAs(t, router, "admin@example.com")
	aliceCookies := loginAs(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/users/"+formatID(alice.ID), nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	// Cascade killed her refresh token record
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, aliceCookies); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after account delete status = %d, want 401", rec.Code)
	}
}

func TestUsers_CannotDeleteSelf(t *testing.T) {
	_, router, db := testServer(t)
	admin := seedUser(t, db, "admin@example.com", "admin")
	cookies := loginAs(t, router, "admin@example.com")

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/users/"+formatID(admin.ID), nil, cookies)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self-delete status = %d, want 400", rec.Code)
	}
}

func TestAuditEndpoint_AdminOnly(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "admin@example.com", "admin")
	seedUser(t, db, "customer@example.com", "customer")
	admin := loginAs(t, router, "admin@example.com")
	customer := loginAs(t, router, "customer@example.com")

	if rec := doJSON(t, router, http.MethodGet, "/api/v1/audit/", nil, customer); rec.Code != http.StatusForbidden {
		t.Errorf("customer audit status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/audit/?limit=10", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin audit status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["logs"]; !ok {
		t.Error("audit response should carry a logs array")
	}
}
