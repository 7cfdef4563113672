package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service orchestrates the credential and token lifecycle: registration,
// login, refresh rotation, and logout. CRUD on users and tenants goes through
// the repositories directly; Service owns only the flows that touch
// credentials or tokens.
type Service struct {
	users  UserRepository
	tokens TokenRepository
	signer TokenSigner
	logger *slog.Logger
}

// TokenSigner is the signing surface the service depends on.
// *Signer is the production implementation.
type TokenSigner interface {
	SignAccessToken(user *User) (string, error)
	SignRefreshToken(user *User, recordID int64) (string, error)
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
	VerifyRefreshToken(tokenString string) (*RefreshClaims, error)
}

// NewService creates an auth service.
func NewService(users UserRepository, tokens TokenRepository, signer TokenSigner, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		signer: signer,
		logger: logger,
	}
}

// RegisterInput holds the fields for a self-service registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	TenantID  *int64
}

// Register creates a customer account and signs in the new user.
//
// Email uniqueness is enforced solely by the storage constraint; a duplicate
// surfaces as ErrEmailTaken. Self-registration always produces a customer,
// role escalation is an admin operation.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, TokenPair, error) {
	const op = "auth.Register"

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := &User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleCustomer,
		TenantID:     in.TenantID,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			s.logger.Info("registration rejected", "op", op, "reason", "email taken")
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user registered", "op", op, "user_id", user.ID)
	return user, pair, nil
}

// Login authenticates a user by email and password.
//
// An unknown email and a wrong password both return ErrInvalidCredentials;
// callers must not reveal which check failed.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	const op = "auth.Login"

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Info("login rejected", "op", op, "reason", "unknown email")
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		s.logger.Info("login rejected", "op", op, "user_id", user.ID, "reason", "wrong password")
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user logged in", "op", op, "user_id", user.ID)
	return user, pair, nil
}

// Refresh rotates a refresh token: it validates the presented token, issues
// a fresh pair, and retires the old record.
//
// The new record is created before the old one is deleted. A crash between
// the two steps leaves the user with two live records rather than zero, which
// is recoverable; the reverse order could lock them out.
//
// A structurally valid token whose record is gone returns ErrTokenInvalid;
// it was already rotated or revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	recordID, err := claims.RecordID()
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	live, err := s.tokens.Exists(ctx, recordID)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if !live {
		s.logger.Info("refresh rejected", "op", op, "record_id", recordID, "reason", "record gone")
		return nil, TokenPair{}, ErrTokenInvalid
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Account deleted while the token was outstanding.
			return nil, TokenPair{}, ErrTokenInvalid
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.Delete(ctx, recordID); err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("tokens rotated", "op", op, "user_id", user.ID)
	return user, pair, nil
}

// Logout revokes the presented refresh token by deleting its record.
//
// Logout converges: a token that was already rotated, already revoked, or
// never valid all end in the same state, so none of those cases error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"

	claims, err := s.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		// Nothing to revoke for a token we would never have accepted.
		return nil
	}

	recordID, err := claims.RecordID()
	if err != nil {
		return nil
	}

	if err := s.tokens.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user logged out", "op", op, "record_id", recordID)
	return nil
}

// Self returns the account for an authenticated user ID.
func (s *Service) Self(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// issuePair signs an access token, creates a refresh record, and signs the
// refresh token carrying the record's ID.
func (s *Service) issuePair(ctx context.Context, user *User) (TokenPair, error) {
	access, err := s.signer.SignAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}

	recordID, err := s.tokens.Create(ctx, user.ID, time.Now().Add(RefreshTokenTTL))
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.signer.SignRefreshToken(user, recordID)
	if err != nil {
		// A record whose token was never handed out must not stay live.
		if delErr := s.tokens.Delete(ctx, recordID); delErr != nil {
			s.logger.Error("deleting unissued refresh record", "record_id", recordID, "error", delErr)
		}
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
