package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfigFile writes a YAML config to a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validConfig = `
service:
  environment: development
database:
  path: /tmp/authd-test.db
security:
  jwt:
    private_key_file: /etc/authd/private.pem
    refresh_secret: 0123456789abcdef0123456789abcdef
    issuer: auth-service
  cookie:
    domain: localhost
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/authd-test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/authd-test.db")
	}
	if cfg.Security.JWT.Issuer != "auth-service" {
		t.Errorf("JWT.Issuer = %q, want %q", cfg.Security.JWT.Issuer, "auth-service")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be true for environment: development")
	}
	// Defaults survive partial config
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() should fail for missing file")
	}
}

func TestLoad_MissingSigningMaterial(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /tmp/authd-test.db
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail without signing material")
	}
	if !strings.Contains(err.Error(), "private_key_file") {
		t.Errorf("error should mention private_key_file, got: %v", err)
	}
	if !strings.Contains(err.Error(), "refresh_secret") {
		t.Errorf("error should mention refresh_secret, got: %v", err)
	}
}

func TestLoad_ShortRefreshSecret(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /tmp/authd-test.db
security:
  jwt:
    private_key_file: /etc/authd/private.pem
    refresh_secret: too-short
    issuer: auth-service
  cookie:
    domain: localhost
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() should reject a refresh secret under 32 characters")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	t.Setenv("AUTHD_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("AUTHD_JWT_REFRESH_SECRET", "ffffffffffffffffffffffffffffffff")
	t.Setenv("AUTHD_COOKIE_DOMAIN", "auth.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.Security.JWT.RefreshSecret != "ffffffffffffffffffffffffffffffff" {
		t.Error("refresh secret should come from environment")
	}
	if cfg.Security.Cookie.Domain != "auth.example.com" {
		t.Errorf("Cookie.Domain = %q, want env override", cfg.Security.Cookie.Domain)
	}
}

func TestValidate_BadEnvironment(t *testing.T) {
	cfg := defaultConfig()
	cfg.Service.Environment = "staging"
	cfg.Security.JWT.PrivateKeyFile = "/etc/authd/private.pem"
	cfg.Security.JWT.RefreshSecret = strings.Repeat("x", 32)

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject unknown environment")
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWT.PrivateKeyFile = "/etc/authd/private.pem"
	cfg.Security.JWT.RefreshSecret = strings.Repeat("x", 32)
	cfg.API.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject port 0")
	}
}
