package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/foodbridge/distribution-api/internal/model"
)

// TenantRepository provides access to the tenants table.
type TenantRepository struct {
    db *sql.DB
}

// NewTenantRepository constructs a TenantRepository.
func NewTenantRepository(db *sql.DB) *TenantRepository {
    return &TenantRepository{db: db}
}

// Create inserts a new tenant.  A duplicate name maps to ErrConflict.
func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) (uint64, error) {
    const q = `INSERT INTO tenants (name, active) VALUES (?, 1)`
    res, err := r.db.ExecContext(ctx, q, t.Name)
    if err != nil {
        var me *mysql.MySQLError
        if errors.As(err, &me) && me.Number == 1062 {
            return 0, ErrConflict
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByID fetches a tenant by primary key.
func (r *TenantRepository) GetByID(ctx context.Context, id uint64) (*model.Tenant, error) {
    const q = `SELECT id, name, active, created_at FROM tenants WHERE id = ?`
    var t model.Tenant
    err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// ListActive returns every active tenant ordered by name.
func (r *TenantRepository) ListActive(ctx context.Context) ([]model.Tenant, error) {
    const q = `SELECT id, name, active, created_at FROM tenants WHERE active = 1 ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Tenant
    for rows.Next() {
        var t model.Tenant
        if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}
