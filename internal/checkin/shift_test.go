package checkin

import (
    "testing"
    "time"
)

func TestShiftExpired(t *testing.T) {
    start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
    max := 8 * time.Hour

    cases := map[string]struct {
        now     time.Time
        expired bool
    }{
        "fresh":      {start.Add(time.Hour), false},
        "just under": {start.Add(max - time.Second), false},
        "exactly at": {start.Add(max), true},
        "long stale": {start.Add(48 * time.Hour), true},
    }
    for name, tc := range cases {
        if got := shiftExpired(start, tc.now, max); got != tc.expired {
            t.Fatalf("%s: expired = %v, want %v", name, got, tc.expired)
        }
    }
}
