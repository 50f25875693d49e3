package checkin

import (
    "context"
    "database/sql"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
    "github.com/foodbridge/distribution-api/internal/repository"
)

// Reconciler keeps the tenant_associations table consistent with what the
// check-in flows learn about a participant.  It always runs inside the
// caller's transaction, under the participant day lock.
type Reconciler struct {
    assoc *repository.AssociationRepository
}

// NewReconciler constructs a Reconciler.
func NewReconciler(assoc *repository.AssociationRepository) *Reconciler {
    return &Reconciler{assoc: assoc}
}

// Reconcile brings the participant's tenant links in line with an observed
// attribution to tenantID.  confirmed is true when the observation came
// from a worker-attended hand-out and false for self-service guesses.  The
// operation is idempotent: running it twice with the same inputs changes
// nothing the second time.
func (r *Reconciler) Reconcile(ctx context.Context, tx *sql.Tx, participantID, tenantID uint64, day time.Time, confirmed bool) error {
    existing, err := r.assoc.ListForReconcileTx(ctx, tx, participantID, tenantID, day)
    if err != nil {
        return err
    }

    plan := planReconcile(existing, tenantID, confirmed)
    for _, id := range plan.confirmIDs {
        if err := r.assoc.ConfirmTx(ctx, tx, id); err != nil {
            return err
        }
    }
    for _, id := range plan.deleteIDs {
        if err := r.assoc.DeleteTx(ctx, tx, id); err != nil {
            return err
        }
    }
    if plan.insert {
        if err := r.assoc.InsertTx(ctx, tx, participantID, tenantID, day, confirmed); err != nil {
            return err
        }
    }
    return nil
}

// reconcilePlan lists the row changes Reconcile will apply.
type reconcilePlan struct {
    confirmIDs []uint64 // unconfirmed rows for the observed tenant to flip
    deleteIDs  []uint64 // stale same-day unconfirmed guesses for other tenants
    insert     bool     // no row for the observed tenant exists yet
}

// planReconcile computes the changes without touching the database.
// existing is the set fetched by ListForReconcileTx: rows for the observed
// tenant plus today's unconfirmed guesses for other tenants.
//
// Rules: an unconfirmed row for the observed tenant is flipped when the
// observation is confirmed.  Every fetched row for a different tenant is a
// superseded same-day guess and is deleted, keeping at most one unconfirmed
// link per participant per day.  Confirmed rows for other tenants were
// never fetched and are therefore never touched.  When no row for the
// observed tenant exists, one is inserted carrying the observation's
// confirmed flag.
func planReconcile(existing []model.TenantAssociation, tenantID uint64, confirmed bool) reconcilePlan {
    var plan reconcilePlan
    found := false
    for _, a := range existing {
        if a.TenantID == tenantID {
            found = true
            if !a.Confirmed && confirmed {
                plan.confirmIDs = append(plan.confirmIDs, a.ID)
            }
            continue
        }
        plan.deleteIDs = append(plan.deleteIDs, a.ID)
    }
    if !found {
        plan.insert = true
    }
    return plan
}
