package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Access tokens are validated by signature alone, so they
// stay short. Refresh tokens are long-lived but revocable: the signed expiry
// is an upper bound, the server-side record is the actual kill switch.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 365 * 24 * time.Hour
)

// AccessClaims are the claims carried by an access token.
//
// Role and tenant are snapshots taken at signing time. A role change on the
// account does not propagate to tokens already issued; it takes effect when
// the client next refreshes.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role     Role   `json:"role"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

// RefreshClaims are the claims carried by a refresh token.
// The ID (jti) is the decimal form of the server-side record's primary key.
// Role and tenant are carried for parity with the access token, but the
// refresh path reloads the account, so they are informational only.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Role     Role   `json:"role"`
	TenantID *int64 `json:"tenant_id,omitempty"`
}

// Signer signs and verifies the two token kinds with their respective
// algorithms: RS256 for access tokens, HS256 for refresh tokens. Each verify
// path pins its algorithm, so a token signed one way never validates the
// other.
type Signer struct {
	privateKey    *rsa.PrivateKey
	refreshSecret []byte
	issuer        string
}

// NewSigner creates a Signer. The private key and refresh secret are both
// required; a signer without its material must not be constructed.
func NewSigner(privateKey *rsa.PrivateKey, refreshSecret []byte, issuer string) (*Signer, error) {
	if privateKey == nil {
		return nil, ErrNoSigningKey
	}
	if len(refreshSecret) == 0 {
		return nil, ErrNoRefreshSecret
	}
	return &Signer{
		privateKey:    privateKey,
		refreshSecret: refreshSecret,
		issuer:        issuer,
	}, nil
}

// LoadPrivateKey reads an RSA private key from a PEM file.
// Both PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from validated config
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing PKCS#1 private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key in %s is not RSA", path)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// PublicKey returns the public half of the signing key, for verification by
// other services.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.privateKey.PublicKey
}

// SignAccessToken creates an RS256-signed access token for a user.
func (s *Signer) SignAccessToken(user *User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
		Role:     user.Role,
		TenantID: user.TenantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// SignRefreshToken creates an HS256-signed refresh token whose jti is the
// ID of an existing refresh token record.
func (s *Signer) SignRefreshToken(user *User, recordID int64) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
			ID:        strconv.FormatInt(recordID, 10),
		},
		Role:     user.Role,
		TenantID: user.TenantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates an access token's signature, expiry, and
// issuer, returning its claims.
func (s *Signer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(_ *jwt.Token) (any, error) {
		return &s.privateKey.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role", ErrTokenInvalid)
	}

	return claims, nil
}

// VerifyRefreshToken validates a refresh token's signature, expiry, and
// issuer, returning its claims. Callers must additionally check that the
// record named by the jti still exists; the signature alone does not make a
// refresh token live.
func (s *Signer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(_ *jwt.Token) (any, error) {
		return s.refreshSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or jti", ErrTokenInvalid)
	}

	return claims, nil
}

// RecordID returns the refresh token record ID carried in the jti claim.
func (c *RefreshClaims) RecordID() (int64, error) {
	id, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed jti", ErrTokenInvalid)
	}
	return id, nil
}

// SubjectID returns the user ID carried in the subject claim.
func (c *AccessClaims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", ErrTokenInvalid)
	}
	return id, nil
}

// SubjectID returns the user ID carried in the subject claim.
func (c *RefreshClaims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed subject", ErrTokenInvalid)
	}
	return id, nil
}
