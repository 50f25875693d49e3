package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/foodbridge/distribution-api/internal/model"
)

// LocationRepository provides access to locations and the location_tenants
// join table.
type LocationRepository struct {
    db *sql.DB
}

// NewLocationRepository constructs a LocationRepository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
    return &LocationRepository{db: db}
}

// Create inserts a new location.  A duplicate name maps to ErrConflict.
func (r *LocationRepository) Create(ctx context.Context, l *model.Location) (uint64, error) {
    const q = `INSERT INTO locations (name, address, active) VALUES (?, ?, 1)`
    res, err := r.db.ExecContext(ctx, q, l.Name, l.Address)
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

// GetByID fetches a location by primary key.
func (r *LocationRepository) GetByID(ctx context.Context, id uint64) (*model.Location, error) {
    const q = `SELECT id, name, address, active, created_at FROM locations WHERE id = ?`
    var l model.Location
    err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.Name, &l.Address, &l.Active, &l.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &l, nil
}

// ListActive returns every active location ordered by name.
func (r *LocationRepository) ListActive(ctx context.Context) ([]model.Location, error) {
    const q = `SELECT id, name, address, active, created_at FROM locations WHERE active = 1 ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Location
    for rows.Next() {
        var l model.Location
        if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Active, &l.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// LinkTenant attaches a tenant to a location.  Linking twice is a no-op.
func (r *LocationRepository) LinkTenant(ctx context.Context, locationID, tenantID uint64) error {
    const q = `INSERT IGNORE INTO location_tenants (location_id, tenant_id) VALUES (?, ?)`
    _, err := r.db.ExecContext(ctx, q, locationID, tenantID)
    return err
}

// TenantIDsAt returns the tenants operating at a location.  The scan flow
// uses this to resolve attribution implicitly when exactly one tenant is
// present.
func (r *LocationRepository) TenantIDsAt(ctx context.Context, locationID uint64) ([]uint64, error) {
    const q = `SELECT tenant_id FROM location_tenants WHERE location_id = ? ORDER BY tenant_id`
    rows, err := r.db.QueryContext(ctx, q, locationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}
