package repository // package repository implements data access on top of database/sql

import "errors"

// Sentinel errors shared across repositories.  Handlers translate these into
// HTTP status codes; everything else is treated as an internal error.
var (
    // ErrNotFound signals that the requested row does not exist.
    ErrNotFound = errors.New("not found")
    // ErrConflict signals a state conflict (duplicate email, overlapping shift).
    ErrConflict = errors.New("conflict")
    // ErrForbidden signals that the caller may not act on the row.
    ErrForbidden = errors.New("forbidden")
)
