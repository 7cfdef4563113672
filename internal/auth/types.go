package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic email shape check: something@something.tld.
// Deliverability is not verified here.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxEmailLength is the maximum accepted email length.
const maxEmailLength = 254

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// IsValidEmail checks if an email address has a plausible format.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// IsValidPassword checks if a password meets the minimum length requirement.
func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLength
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleCustomer is the default tier for self-registered accounts.
	RoleCustomer Role = "customer"

	// RoleManager can view tenant and user details within normal operations.
	RoleManager Role = "manager"

	// RoleAdmin has full control: tenant management, user management, audit.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of roles an account may hold.
var ValidRoles = []Role{RoleCustomer, RoleManager, RoleAdmin}

// IsValidRole returns true if the role is one of the known tiers.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// AtLeast returns true if the role grants the privileges of required.
// Ordering: customer < manager < admin.
func (r Role) AtLeast(required Role) bool {
	rank := map[Role]int{RoleCustomer: 0, RoleManager: 1, RoleAdmin: 2}
	rr, ok := rank[r]
	if !ok {
		return false
	}
	return rr >= rank[required]
}

// User represents an account that can authenticate.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tenant represents an organisation that users can belong to.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshTokenRecord is the server-side half of a refresh token.
//
// The signed refresh JWT carries this record's ID as its jti claim. A token
// is live if and only if its record row still exists: rotation and logout
// delete the row, which invalidates every copy of the JWT regardless of its
// embedded expiry.
type RefreshTokenRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair holds a freshly signed access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("email or password does not match")
	ErrEmailTaken         = errors.New("email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrNoSigningKey       = errors.New("access token signing key not configured")
	ErrNoRefreshSecret    = errors.New("refresh token secret not configured")
)
