package api

import (
	"net/http"
	"strings"
	"testing"
)

func registerBody(email string) map[string]any {
	return map[string]any{
		"first_name": "Alice",
		"last_name":  "Smith",
		"email":      email,
		"password":   "hunter2hunter2",
	}
}

// cookieByName finds a response cookie, failing the test if absent.
func cookieByName(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestRegister(t *testing.T) {
	_, router, _ := testServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody("alice@example.com"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The body carries the new account's id and nothing else
	body := decodeBody(t, rec)
	if body["id"] != float64(1) {
		t.Errorf("id = %v, want 1", body["id"])
	}
	if len(body) != 1 {
		t.Errorf("body keys = %v, want only id", body)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not contain any password material")
	}

	cookies := rec.Result().Cookies()
	access := cookieByName(t, cookies, "accessToken")
	refresh := cookieByName(t, cookies, "refreshToken")

	for _, c := range []*http.Cookie{access, refresh} {
		if !c.HttpOnly {
			t.Errorf("cookie %s should be httpOnly", c.Name)
		}
		if c.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie %s SameSite = %v, want strict", c.Name, c.SameSite)
		}
		if c.Domain != "localhost" {
			t.Errorf("cookie %s domain = %q, want localhost", c.Name, c.Domain)
		}
		if c.Value == "" {
			t.Errorf("cookie %s should carry a token", c.Name)
		}
	}
	if access.MaxAge != 3600 {
		t.Errorf("access cookie MaxAge = %d, want 3600", access.MaxAge)
	}
	if refresh.MaxAge != 365*24*3600 {
		t.Errorf("refresh cookie MaxAge = %d, want one year", refresh.MaxAge)
	}

	// The account details live behind /self, not in the register response
	self := doJSON(t, router, http.MethodGet, "/api/v1/auth/self", nil, cookies)
	if self.Code != http.StatusOK {
		t.Fatalf("self status = %d, body %s", self.Code, self.Body.String())
	}
	if got := decodeBody(t, self)["role"]; got != "customer" {
		t.Errorf("role = %v, want customer (self-registration never escalates)", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	_, router, _ := testServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"first_name": "",
		"last_name":  "Smith",
		"email":      "not-an-email",
		"password":   "short",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	body := decodeBody(t, rec)
	fields, ok := body["fields"].(map[string]any)
	if !ok {
		t.Fatalf("response should carry field errors, got %s", rec.Body.String())
	}
	for _, f := range []string{"first_name", "email", "password"} {
		if _, present := fields[f]; !present {
			t.Errorf("missing field error for %s", f)
		}
	}
	if _, present := fields["last_name"]; present {
		t.Error("last_name was valid, should not carry an error")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, router, _ := testServer(t)

	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody("alice@example.com"), nil); rec.Code != http.StatusCreated {
		t.Fatalf("first register: status %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", registerBody("alice@example.com"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "conflict" {
		t.Errorf("code = %v, want conflict", body["code"])
	}
}

func TestLogin_BadCredentials_SameMessage(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "alice@example.com", "customer")

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, nil)
	unknownEmail := doJSON(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "ghost@example.com", "password": "test-password"}, nil)

	if wrongPassword.Code != http.StatusBadRequest || unknownEmail.Code != http.StatusBadRequest {
		t.Fatalf("statuses = %d/%d, want 400/400", wrongPassword.Code, unknownEmail.Code)
	}

	// Neither response may reveal which half of the credential failed
	msgA := decodeBody(t, wrongPassword)["message"]
	msgB := decodeBody(t, unknownEmail)["message"]
	if msgA != msgB {
		t.Errorf("messages differ: %q vs %q", msgA, msgB)
	}
	if msgA != "email or password does not match" {
		t.Errorf("message = %q", msgA)
	}
}

func TestSelf(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "alice@example.com", "manager")
	cookies := loginAs(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/self", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["email"] != "alice@example.com" {
		t.Errorf("email = %v", body["email"])
	}
}

func TestSelf_Unauthenticated(t *testing.T) {
	_, router, _ := testServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/auth/self", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefresh_RotatesAndInvalidatesOld(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "alice@example.com", "customer")
	cookies := loginAs(t, router, "alice@example.com")

	first := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, cookies)
	if first.Code != http.StatusOK {
		t.Fatalf("first refresh: status %d, body %s", first.Code, first.Body.String())
	}
	if body := decodeBody(t, first); len(body) != 1 || body["id"] == nil {
		t.Errorf("refresh body = %v, want only id", body)
	}
	rotated := first.Result().Cookies()

	oldRefresh := cookieByName(t, cookies, "refreshToken")
	newRefresh := cookieByName(t, rotated, "refreshToken")
	if oldRefresh.Value == newRefresh.Value {
		t.Error("refresh should rotate the refresh token")
	}

	// Replaying the consumed token must fail
	replay := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, cookies)
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", replay.Code)
	}

	// The rotated one keeps working
	again := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, rotated)
	if again.Code != http.StatusOK {
		t.Errorf("rotated refresh status = %d", again.Code)
	}
}

func TestRefresh_NoCookie(t *testing.T) {
	_, router, _ := testServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogout_IdempotentAndClearsCookies(t *testing.T) {
	_, router, db := testServer(t)
	seedUser(t, db, "alice@example.com", "customer")
	cookies := loginAs(t, router, "alice@example.com")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); len(body) != 0 {
		t.Errorf("logout body = %v, want empty object", body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s should be expired, MaxAge = %d", c.Name, c.MaxAge)
		}
	}

	// The revoked refresh token is dead
	if refresh := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", nil, cookies); refresh.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", refresh.Code)
	}

	// Logging out again, or with no cookies at all, still succeeds
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil, cookies); rec.Code != http.StatusOK {
		t.Errorf("second logout status = %d, want 200", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("cookieless logout status = %d, want 200", rec.Code)
	}
}
