package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TenantRepository defines the interface for tenant persistence.
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteTenantRepository implements TenantRepository using SQLite.
type SQLiteTenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new SQLite-backed tenant repository.
func NewTenantRepository(db *sql.DB) *SQLiteTenantRepository {
	return &SQLiteTenantRepository{db: db}
}

// Create inserts a new tenant and sets its generated ID.
func (r *SQLiteTenantRepository) Create(ctx context.Context, tenant *Tenant) error {
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (name, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		tenant.Name, tenant.Address,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	tenant.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading tenant id: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID.
func (r *SQLiteTenantRepository) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	var t Tenant
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM tenants WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &t.Address, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("getting tenant: %w", err)
	}

	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
	return &t, nil
}

// List returns all tenants ordered by creation time.
func (r *SQLiteTenantRepository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM tenants ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	tenants := []Tenant{}
	for rows.Next() {
		var t Tenant
		var createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}
	return tenants, nil
}

// Update persists changes to an existing tenant.
func (r *SQLiteTenantRepository) Update(ctx context.Context, tenant *Tenant) error {
	tenant.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, address = ?, updated_at = ? WHERE id = ?`,
		tenant.Name, tenant.Address,
		tenant.UpdatedAt.Format(time.RFC3339), tenant.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tenant: %w", err)
	}

	affected, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if affected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant. Users referencing it keep their accounts with
// tenant_id cleared.
func (r *SQLiteTenantRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tenants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}

	affected, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if affected == 0 {
		return ErrTenantNotFound
	}
	return nil
}
