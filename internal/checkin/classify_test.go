package checkin

import (
    "testing"
    "time"

    "github.com/foodbridge/distribution-api/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ev(d time.Time, loc uint64) repository.EventRef {
    return repository.EventRef{ServiceDay: d, LocationID: loc, TenantID: 1}
}

func TestClassifyNewRegistration(t *testing.T) {
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    got := Classify(day(2026, 8, 10), nil, nil, start, end, nil)
    if got != ClassNew {
        t.Fatalf("registered inside window: got %s, want NEW", got)
    }
}

func TestClassifyWindowHalfOpen(t *testing.T) {
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    if got := Classify(start, nil, nil, start, end, nil); got != ClassNew {
        t.Fatalf("registration on windowStart should be NEW, got %s", got)
    }
    if got := Classify(end, nil, nil, start, end, nil); got != ClassNeither {
        t.Fatalf("registration on windowEnd is outside the window, got %s", got)
    }
}

func TestClassifyNewWinsOverEvents(t *testing.T) {
    // Registered and served inside the window: NEW, not RECURRING.
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    events := []repository.EventRef{ev(day(2026, 8, 15), 1)}
    got := Classify(day(2026, 8, 10), nil, events, start, end, nil)
    if got != ClassNew {
        t.Fatalf("got %s, want NEW", got)
    }
}

func TestClassifyRecurringWithPriorEvent(t *testing.T) {
    // Rule (a): the in-window visit has an approved visit before it.
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    events := []repository.EventRef{
        ev(day(2026, 6, 3), 1),
        ev(day(2026, 8, 15), 1),
    }
    got := Classify(day(2026, 5, 1), nil, events, start, end, nil)
    if got != ClassRecurring {
        t.Fatalf("got %s, want RECURRING", got)
    }
}

func TestClassifyRecurringFirstVisitAfterOldRegistration(t *testing.T) {
    // Rule (b): registered before the window, never served before it, and
    // visited inside it.
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    events := []repository.EventRef{ev(day(2026, 8, 15), 1)}
    got := Classify(day(2026, 5, 1), nil, events, start, end, nil)
    if got != ClassRecurring {
        t.Fatalf("got %s, want RECURRING", got)
    }
}

func TestClassifyTwoInWindowVisitsAreRecurring(t *testing.T) {
    // The second in-window visit has the first as its prior event.
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    locA, locB := uint64(1), uint64(2)
    events := []repository.EventRef{
        ev(day(2026, 8, 10), locA),
        ev(day(2026, 8, 20), locA),
    }
    // Filter excludes the registration location so NEW does not apply;
    // the second visit then recurs on the first.
    got := Classify(day(2026, 8, 5), &locB, events, start, end, &locA)
    if got != ClassRecurring {
        t.Fatalf("got %s, want RECURRING via rule (a)", got)
    }
}

func TestClassifyNeitherWithoutWindowEvents(t *testing.T) {
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    events := []repository.EventRef{ev(day(2026, 7, 2), 1)}
    got := Classify(day(2026, 5, 1), nil, events, start, end, nil)
    if got != ClassNeither {
        t.Fatalf("events outside the window must not count: got %s", got)
    }
}

func TestClassifyLocationFilterOnNew(t *testing.T) {
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    locA, locB := uint64(1), uint64(2)

    got := Classify(day(2026, 8, 10), &locA, nil, start, end, &locA)
    if got != ClassNew {
        t.Fatalf("registered at the filtered location: got %s, want NEW", got)
    }

    got = Classify(day(2026, 8, 10), &locB, nil, start, end, &locA)
    if got != ClassNeither {
        t.Fatalf("registered elsewhere: got %s, want NEITHER", got)
    }

    got = Classify(day(2026, 8, 10), nil, nil, start, end, &locA)
    if got != ClassNeither {
        t.Fatalf("unknown registration location: got %s, want NEITHER", got)
    }
}

func TestClassifyLocationFilterOnPriorEvent(t *testing.T) {
    // Rule (a) filters the prior event's location, not the in-window one.
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    locA, locB := uint64(1), uint64(2)
    events := []repository.EventRef{
        ev(day(2026, 6, 3), locB),
        ev(day(2026, 8, 15), locA),
    }
    reg := day(2026, 5, 1)

    if got := Classify(reg, nil, events, start, end, &locB); got != ClassRecurring {
        t.Fatalf("prior event at filtered location: got %s, want RECURRING", got)
    }
    // Filter on locA: the prior event mismatches and rule (b) fails because
    // the participant was served before the window.
    if got := Classify(reg, nil, events, start, end, &locA); got != ClassNeither {
        t.Fatalf("prior event elsewhere and already served: got %s, want NEITHER", got)
    }
}

func TestClassifyRuleBRequiresNoPriorService(t *testing.T) {
    start, end := day(2026, 8, 1), day(2026, 9, 1)
    locA := uint64(1)
    events := []repository.EventRef{
        ev(day(2026, 6, 3), 9), // served before the window, elsewhere
        ev(day(2026, 8, 15), locA),
    }
    got := Classify(day(2026, 5, 1), &locA, events, start, end, &locA)
    if got != ClassNeither {
        t.Fatalf("pre-window service disqualifies rule (b): got %s", got)
    }
}
