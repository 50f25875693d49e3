package checkin // package checkin implements the attribution and hand-out engine

import "errors"

var (
    // ErrUnresolvedTenant means the scan could not be attributed: the
    // location hosts several tenants, the request named none and no worker
    // shift disambiguates.  Handlers return 409 with "unresolved_attribution".
    ErrUnresolvedTenant = errors.New("unresolved attribution")

    // ErrNoPendingScan means an approval arrived for a participant with no
    // scanned hand-out awaiting confirmation.
    ErrNoPendingScan = errors.New("no pending scan")

    // ErrLockTimeout means the per-participant lock could not be acquired
    // in time.  A concurrent check-in for the same participant is running.
    ErrLockTimeout = errors.New("participant lock timeout")

    // ErrNotOnDuty means the caller tried an action that requires an open,
    // unexpired duty shift.
    ErrNotOnDuty = errors.New("not on duty")
)
