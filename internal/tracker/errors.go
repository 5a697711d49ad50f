// ABOUTME: Run session errors
// ABOUTME: Enables consistent handling of state machine and input failures

package tracker

import "errors"

// ErrInvalidTransition is returned when an operation is not allowed in the session's current state.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrInvalidFix is returned when a fix has unusable coordinates.
var ErrInvalidFix = errors.New("invalid fix")
