package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

// AssociationRepository manages the tenant_associations table.  The write
// methods take a *sql.Tx because attribution reconciliation always runs as
// part of a larger check-in transaction under the per-participant lock.
type AssociationRepository struct {
    db *sql.DB
}

// NewAssociationRepository constructs an AssociationRepository.
func NewAssociationRepository(db *sql.DB) *AssociationRepository {
    return &AssociationRepository{db: db}
}

// ListForReconcileTx fetches exactly the rows reconciliation can touch: the
// participant's link to the observed tenant from whichever day, plus any
// unconfirmed links to other tenants created today.  Confirmed links to
// other tenants are deliberately excluded; reconciliation never modifies
// them.
func (r *AssociationRepository) ListForReconcileTx(ctx context.Context, tx *sql.Tx, participantID, tenantID uint64, today time.Time) ([]model.TenantAssociation, error) {
    const q = `
SELECT id, participant_id, tenant_id, created_on, confirmed, created_at, updated_at
FROM tenant_associations
WHERE participant_id = ?
  AND (tenant_id = ? OR (created_on = ? AND confirmed = 0))
ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, participantID, tenantID, today.Format("2006-01-02"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectAssociations(rows)
}

// InsertTx creates a new association row.
func (r *AssociationRepository) InsertTx(ctx context.Context, tx *sql.Tx, participantID, tenantID uint64, today time.Time, confirmed bool) error {
    const q = `
INSERT INTO tenant_associations (participant_id, tenant_id, created_on, confirmed)
VALUES (?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q, participantID, tenantID, today.Format("2006-01-02"), confirmed)
    return err
}

// ConfirmTx flips an unconfirmed association to confirmed.
func (r *AssociationRepository) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE tenant_associations SET confirmed = 1 WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// DeleteTx removes an association row.  Only same-day unconfirmed guesses
// superseded by an observation of a different tenant are ever deleted.
func (r *AssociationRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `DELETE FROM tenant_associations WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// ListForParticipant returns every association of a participant, newest
// first.  Used by the reporting endpoints.
func (r *AssociationRepository) ListForParticipant(ctx context.Context, participantID uint64) ([]model.TenantAssociation, error) {
    const q = `
SELECT id, participant_id, tenant_id, created_on, confirmed, created_at, updated_at
FROM tenant_associations
WHERE participant_id = ?
ORDER BY created_on DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, participantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    return collectAssociations(rows)
}

func collectAssociations(rows *sql.Rows) ([]model.TenantAssociation, error) {
    var out []model.TenantAssociation
    for rows.Next() {
        var a model.TenantAssociation
        if err := rows.Scan(&a.ID, &a.ParticipantID, &a.TenantID, &a.CreatedOn, &a.Confirmed, &a.CreatedAt, &a.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}
