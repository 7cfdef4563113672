package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the authd configuration tree. Values come from the
// YAML file; selected keys can be overridden through AUTHD_* environment
// variables, which is how secrets are normally injected.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ServiceConfig contains service-wide settings.
type ServiceConfig struct {
	// Environment is "production" or "development". In development, error
	// responses include internal detail; in production they carry only a
	// correlation reference.
	Environment string `yaml:"environment"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig holds the TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig holds the HTTP timeouts, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig lists the cross-origin access rules. Cookies require
// credentialed CORS, so allowed origins are matched exactly and the wildcard
// is only honoured in development.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig groups signing material, cookie scope, and seeding.
type SecurityConfig struct {
	JWT    JWTConfig    `yaml:"jwt"`
	Cookie CookieConfig `yaml:"cookie"`
	Seed   SeedConfig   `yaml:"seed"`
}

// JWTConfig contains token signing settings.
//
// The access token is signed with the RSA private key (RS256) so resource
// servers can verify with the public half alone; the refresh token is signed
// with the shared secret (HS256) and never leaves this service's trust
// boundary except as a cookie.
type JWTConfig struct {
	// PrivateKeyFile is the path to a PEM-encoded RSA private key.
	PrivateKeyFile string `yaml:"private_key_file"`

	// RefreshSecret is the HMAC secret for refresh tokens.
	RefreshSecret string `yaml:"refresh_secret"`

	// Issuer is the iss claim stamped on every issued token.
	Issuer string `yaml:"issuer"`
}

// CookieConfig contains auth cookie settings.
type CookieConfig struct {
	// Domain scopes the accessToken and refreshToken cookies.
	Domain string `yaml:"domain"`
}

// SeedConfig controls first-boot admin seeding.
type SeedConfig struct {
	// AdminEmail enables seeding of an initial admin account when the users
	// table is empty. Empty disables seeding.
	AdminEmail string `yaml:"admin_email"`
}

// Load reads the YAML file at path and returns the validated configuration.
//
// Values layer in order: hardcoded defaults, then the file, then AUTHD_*
// environment variables (AUTHD_DATABASE_PATH, AUTHD_JWT_REFRESH_SECRET, and
// so on). Validation runs on the final result, so a bad file can be rescued
// by an env override and vice versa.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the baseline configuration before file and env
// layering.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Environment: "production",
		},
		Database: DatabaseConfig{
			Path:        "./data/authd.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer: "auth-service",
			},
			Cookie: CookieConfig{
				Domain: "localhost",
			},
		},
	}
}

// applyEnvOverrides layers AUTHD_* environment variables over cfg.
func applyEnvOverrides(cfg *Config) {
	// Service
	if v := os.Getenv("AUTHD_ENVIRONMENT"); v != "" {
		cfg.Service.Environment = v
	}

	// Database
	if v := os.Getenv("AUTHD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("AUTHD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("AUTHD_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Security - signing material (IMPORTANT: always set in production)
	if v := os.Getenv("AUTHD_JWT_PRIVATE_KEY_FILE"); v != "" {
		cfg.Security.JWT.PrivateKeyFile = v
	}
	if v := os.Getenv("AUTHD_JWT_REFRESH_SECRET"); v != "" {
		cfg.Security.JWT.RefreshSecret = v
	}
	if v := os.Getenv("AUTHD_JWT_ISSUER"); v != "" {
		cfg.Security.JWT.Issuer = v
	}
	if v := os.Getenv("AUTHD_COOKIE_DOMAIN"); v != "" {
		cfg.Security.Cookie.Domain = v
	}
	if v := os.Getenv("AUTHD_SEED_ADMIN_EMAIL"); v != "" {
		cfg.Security.Seed.AdminEmail = v
	}
}

// Validate reports every configuration problem at once rather than stopping
// at the first. Missing signing material is startup-fatal: the process must
// refuse to serve rather than mint unverifiable tokens.
func (c *Config) Validate() error {
	var errs []string

	// Service validation
	switch c.Service.Environment {
	case "production", "development":
	default:
		errs = append(errs, "service.environment must be production or development")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Security validation - signing material is REQUIRED
	const minRefreshSecretLength = 32
	if c.Security.JWT.PrivateKeyFile == "" {
		errs = append(errs, "security.jwt.private_key_file is required (set AUTHD_JWT_PRIVATE_KEY_FILE environment variable)")
	}
	if c.Security.JWT.RefreshSecret == "" {
		errs = append(errs, "security.jwt.refresh_secret is required (set AUTHD_JWT_REFRESH_SECRET environment variable)")
	} else if len(c.Security.JWT.RefreshSecret) < minRefreshSecretLength {
		errs = append(errs, "security.jwt.refresh_secret must be at least 32 characters for adequate security")
	}
	if c.Security.JWT.Issuer == "" {
		errs = append(errs, "security.jwt.issuer is required")
	}
	if c.Security.Cookie.Domain == "" {
		errs = append(errs, "security.cookie.domain is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Service.Environment == "development"
}

// ReadTimeout returns the API read timeout as a Duration.
func (c *APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (c *APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (c *APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
