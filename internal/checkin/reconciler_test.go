package checkin

import (
    "testing"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

// assoc builds an association row as ListForReconcileTx would return it.
func assoc(id, tenantID uint64, confirmed bool) model.TenantAssociation {
    return model.TenantAssociation{
        ID:            id,
        ParticipantID: 1,
        TenantID:      tenantID,
        CreatedOn:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
        Confirmed:     confirmed,
    }
}

func TestPlanReconcileInsertsWhenAbsent(t *testing.T) {
    plan := planReconcile(nil, 7, true)
    if !plan.insert {
        t.Fatalf("expected insert for missing link")
    }
    if len(plan.confirmIDs) != 0 || len(plan.deleteIDs) != 0 {
        t.Fatalf("unexpected changes: %+v", plan)
    }
}

func TestPlanReconcileFlipsUnconfirmed(t *testing.T) {
    existing := []model.TenantAssociation{assoc(10, 7, false)}
    plan := planReconcile(existing, 7, true)
    if plan.insert {
        t.Fatalf("should not insert when a link exists")
    }
    if len(plan.confirmIDs) != 1 || plan.confirmIDs[0] != 10 {
        t.Fatalf("expected row 10 confirmed, got %v", plan.confirmIDs)
    }
}

func TestPlanReconcileDeletesSupersededGuesses(t *testing.T) {
    // The fetched set: today's guess for another tenant and the observed
    // tenant's own guess.
    existing := []model.TenantAssociation{
        assoc(10, 3, false),
        assoc(11, 7, false),
    }
    plan := planReconcile(existing, 7, true)
    if len(plan.deleteIDs) != 1 || plan.deleteIDs[0] != 10 {
        t.Fatalf("expected the superseded guess deleted, got %v", plan.deleteIDs)
    }
    if len(plan.confirmIDs) != 1 || plan.confirmIDs[0] != 11 {
        t.Fatalf("expected the matching guess confirmed, got %v", plan.confirmIDs)
    }
    if plan.insert {
        t.Fatalf("should not insert when the tenant already has a link")
    }
}

func TestPlanReconcileGuessDeletesEarlierGuess(t *testing.T) {
    // A self-service guess supersedes an earlier same-day guess for a
    // different tenant: at most one unconfirmed link per day survives.
    existing := []model.TenantAssociation{assoc(10, 3, false)}
    plan := planReconcile(existing, 7, false)
    if len(plan.deleteIDs) != 1 || plan.deleteIDs[0] != 10 {
        t.Fatalf("expected the earlier guess deleted, got %v", plan.deleteIDs)
    }
    if !plan.insert {
        t.Fatalf("expected insert of the new guess")
    }
    if len(plan.confirmIDs) != 0 {
        t.Fatalf("a guess must not confirm anything: %v", plan.confirmIDs)
    }
}

func TestPlanReconcileIdempotent(t *testing.T) {
    // State after a confirmed reconcile: one confirmed link for the tenant
    // and no same-day guesses left.
    existing := []model.TenantAssociation{assoc(20, 7, true)}
    plan := planReconcile(existing, 7, true)
    if plan.insert || len(plan.confirmIDs) != 0 || len(plan.deleteIDs) != 0 {
        t.Fatalf("re-running reconcile must be a no-op, got %+v", plan)
    }
}

func TestPlanReconcileNeverDowngradesConfirmed(t *testing.T) {
    existing := []model.TenantAssociation{assoc(20, 7, true)}
    plan := planReconcile(existing, 7, false)
    if plan.insert || len(plan.confirmIDs) != 0 || len(plan.deleteIDs) != 0 {
        t.Fatalf("an unconfirmed observation must not touch a confirmed link, got %+v", plan)
    }
}
