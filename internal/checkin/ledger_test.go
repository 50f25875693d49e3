package checkin

import (
    "testing"
    "time"

    "github.com/foodbridge/distribution-api/internal/model"
)

func ptrU64(v uint64) *uint64    { return &v }
func ptrTime(t time.Time) *time.Time { return &t }

func TestDecideAdvanceNoEventStartsParcel(t *testing.T) {
    if got := decideAdvance(nil, 42, time.Now(), 2*time.Minute); got != actionNewParcel {
        t.Fatalf("expected new parcel, got %v", got)
    }
}

func TestDecideAdvanceGeneratedAbsorbsScan(t *testing.T) {
    ev := &model.CheckInEvent{ID: 1}
    if got := decideAdvance(ev, 42, time.Now(), 2*time.Minute); got != actionScanExisting {
        t.Fatalf("expected scan of generated event, got %v", got)
    }
}

func TestDecideAdvancePendingAbsorbsScan(t *testing.T) {
    // A pending event re-scanned at another location: last writer wins on
    // the same row rather than a second parcel.
    ev := &model.CheckInEvent{ID: 1, WorkerID: ptrU64(9)}
    if got := decideAdvance(ev, 42, time.Now(), 2*time.Minute); got != actionScanExisting {
        t.Fatalf("expected rescan of pending event, got %v", got)
    }
}

func TestDecideAdvanceDuplicateApproval(t *testing.T) {
    now := time.Now()
    ev := &model.CheckInEvent{
        ID:         1,
        WorkerID:   ptrU64(42),
        Approved:   true,
        ApprovedAt: ptrTime(now.Add(-30 * time.Second)),
    }
    if got := decideAdvance(ev, 42, now, 2*time.Minute); got != actionAbsorb {
        t.Fatalf("same worker repeating within the window must be absorbed, got %v", got)
    }
}

func TestDecideAdvanceSecondParcelAfterWindow(t *testing.T) {
    now := time.Now()
    ev := &model.CheckInEvent{
        ID:         1,
        WorkerID:   ptrU64(42),
        Approved:   true,
        ApprovedAt: ptrTime(now.Add(-10 * time.Minute)),
    }
    if got := decideAdvance(ev, 42, now, 2*time.Minute); got != actionNewParcel {
        t.Fatalf("a later scan starts a second parcel, got %v", got)
    }
}

func TestDecideAdvanceOtherWorkerStartsParcel(t *testing.T) {
    now := time.Now()
    ev := &model.CheckInEvent{
        ID:         1,
        WorkerID:   ptrU64(9),
        Approved:   true,
        ApprovedAt: ptrTime(now.Add(-30 * time.Second)),
    }
    if got := decideAdvance(ev, 42, now, 2*time.Minute); got != actionNewParcel {
        t.Fatalf("another worker scanning is a new parcel, got %v", got)
    }
}

func TestServiceDayTruncatesToUTC(t *testing.T) {
    loc := time.FixedZone("UTC+5", 5*3600)
    // 02:30 local on Sep 1 is still Aug 31 in UTC.
    in := time.Date(2026, 9, 1, 2, 30, 0, 0, loc)
    got := ServiceDay(in)
    want := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("ServiceDay = %v, want %v", got, want)
    }
}
