package checkin

import (
    "context"
    "time"

    "github.com/foodbridge/distribution-api/internal/repository"
)

// Class labels a participant relative to a reporting window.
type Class string

const (
    // ClassNew: the participant registered inside the window.
    ClassNew Class = "NEW"
    // ClassRecurring: the participant was served inside the window and is
    // not a first-time contact (see Classify for the exact rule).
    ClassRecurring Class = "RECURRING"
    // ClassNeither: no relation to the window worth reporting.
    ClassNeither Class = "NEITHER"
)

// Classify decides how a participant relates to the half-open window
// [windowStart, windowEnd).  events must be the participant's approved
// events up to windowEnd in chronological order, including pre-window
// history, since the recurring rule looks behind the window.
//
// NEW: registration falls in the window; with a location filter the
// registration location must match.
//
// RECURRING: an approved event falls in the window and either (a) an
// earlier approved event exists before it (matching the location filter
// when given), or (b) the participant registered before the window at the
// filtered location and was never served before the window, making the
// in-window visit their first.
//
// Otherwise NEITHER.
//
// This is the single classification rule in the codebase; reports and any
// future consumers call it rather than re-deriving the window logic.
func Classify(registeredAt time.Time, registeredLocation *uint64, events []repository.EventRef, windowStart, windowEnd time.Time, locationFilter *uint64) Class {
    regDay := ServiceDay(registeredAt)
    startDay := ServiceDay(windowStart)
    endDay := ServiceDay(windowEnd)

    locationMatches := func() bool {
        if locationFilter == nil {
            return true
        }
        return registeredLocation != nil && *registeredLocation == *locationFilter
    }

    if !regDay.Before(startDay) && regDay.Before(endDay) {
        if locationMatches() {
            return ClassNew
        }
        // In-window registration at another location is not NEW for this
        // filter; the recurring check below still applies.
    }

    servedBeforeWindow := false
    for _, e := range events {
        if ServiceDay(e.ServiceDay).Before(startDay) {
            servedBeforeWindow = true
            break
        }
    }

    for i, e := range events {
        day := ServiceDay(e.ServiceDay)
        if day.Before(startDay) || !day.Before(endDay) {
            continue
        }
        // (a) a prior approved event, location-filtered.
        for j := 0; j < i; j++ {
            if locationFilter == nil || events[j].LocationID == *locationFilter {
                return ClassRecurring
            }
        }
        // (b) registered before the window, never served before it.
        if regDay.Before(startDay) && locationMatches() && !servedBeforeWindow {
            return ClassRecurring
        }
    }
    return ClassNeither
}

// Classifier loads the data Classify needs from the store.
type Classifier struct {
    users  *repository.UserRepository
    events *repository.CheckInRepository
}

// NewClassifier constructs a Classifier.
func NewClassifier(users *repository.UserRepository, events *repository.CheckInRepository) *Classifier {
    return &Classifier{users: users, events: events}
}

// ClassifyParticipant classifies one participant against the window.
func (c *Classifier) ClassifyParticipant(ctx context.Context, participantID uint64, windowStart, windowEnd time.Time, locationFilter *uint64) (Class, error) {
    u, err := c.users.GetByID(ctx, participantID)
    if err != nil {
        return ClassNeither, err
    }
    events, err := c.events.ApprovedThrough(ctx, participantID, windowEnd)
    if err != nil {
        return ClassNeither, err
    }
    return Classify(u.RegisteredAt, u.RegisteredLocationID, events, windowStart, windowEnd, locationFilter), nil
}
