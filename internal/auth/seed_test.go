package auth

import (
	"context"
	"testing"
)

func TestSeedAdmin_EmptyDatabase(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	password, err := SeedAdmin(context.Background(), repo, "admin@example.com", testLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedAdmin() should return the generated password")
	}

	admin, err := repo.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("seed admin should exist: %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Errorf("seed role = %q, want admin", admin.Role)
	}
	if !VerifyPassword(password, admin.PasswordHash) {
		t.Error("generated password should verify against the stored hash")
	}
}

func TestSeedAdmin_SkipsWhenUsersExist(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	seedTestUser(t, db, "existing@example.com", RoleCustomer)

	password, err := SeedAdmin(context.Background(), repo, "admin@example.com", testLogger())
	if err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() should skip when users exist")
	}

	if _, err := repo.GetByEmail(context.Background(), "admin@example.com"); err == nil {
		t.Error("no admin should be created when users exist")
	}
}

func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleCustomer, RoleCustomer, true},
		{RoleCustomer, RoleManager, false},
		{RoleCustomer, RoleAdmin, false},
		{RoleManager, RoleCustomer, true},
		{RoleManager, RoleAdmin, false},
		{RoleAdmin, RoleCustomer, true},
		{RoleAdmin, RoleAdmin, true},
		{Role("unknown"), RoleCustomer, false},
	}

	for _, tt := range tests {
		if got := tt.role.AtLeast(tt.required); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "alice.smith@example.com", "x+tag@sub.domain.org"}
	invalid := []string{"", "plain", "@example.com", "a@b", "a b@c.com", "a@b c.com"}

	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true, want false", e)
		}
	}
}
