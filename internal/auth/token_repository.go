package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TokenRepository defines the interface for refresh token record persistence.
//
// Records are immutable: they are created at login or rotation and deleted at
// rotation or logout. There is no update path. Existence of the row is the
// single source of truth for whether a refresh token is live.
type TokenRepository interface {
	// Create inserts a record and returns its generated ID.
	Create(ctx context.Context, userID int64, expiresAt time.Time) (int64, error)

	// Delete removes a record. Deleting a record that does not exist is not
	// an error; concurrent rotation and logout converge on the same state.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a record is still present.
	Exists(ctx context.Context, id int64) (bool, error)

	// DeleteExpired removes records whose expiry has passed, returning the
	// number of deleted rows.
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite-backed token repository.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Create inserts a new refresh token record and returns its ID.
func (r *SQLiteTokenRepository) Create(ctx context.Context, userID int64, expiresAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, expires_at, created_at)
		 VALUES (?, ?, ?)`,
		userID,
		expiresAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("creating refresh token record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading refresh token record id: %w", err)
	}
	return id, nil
}

// Delete removes a refresh token record. Idempotent.
func (r *SQLiteTokenRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting refresh token record: %w", err)
	}
	return nil
}

// Exists reports whether a refresh token record is present.
func (r *SQLiteTokenRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE id = ?", id,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking refresh token record: %w", err)
	}
	return true, nil
}

// DeleteExpired removes records past their expiry, freeing storage.
// Returns the number of deleted rows.
func (r *SQLiteTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired token records: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}
