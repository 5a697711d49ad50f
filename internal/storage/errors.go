// ABOUTME: Common storage errors
// ABOUTME: Enables consistent error handling across storage implementations

package storage

import "errors"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// ErrStorage wraps failures of the underlying medium or of record serialization.
var ErrStorage = errors.New("storage failure")
