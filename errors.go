package swtick

import "github.com/rkubicek/swtick/internal/errorutil"

// Common errors.
const (
	ErrInvalidArgument        = errorutil.ErrInvalidArgument
	ErrActionNotAllowed Error = "action not allowed"
)

// Clock errors.
const (
	// ErrClockUnavailable is returned when the tick source cannot be read.
	// The scheduler treats it as fatal and stops instead of ticking on
	// unknown time.
	ErrClockUnavailable Error = "clock unavailable"
)

// Timer and registry errors.
const (
	// ErrInvalidDuration is returned on timer creation with a zero duration.
	ErrInvalidDuration Error = "invalid timer duration"
	// ErrTimerNotFound is returned on lookup of an unknown timer identity.
	ErrTimerNotFound Error = "timer not found"
	// ErrRegistryClosed is returned when operating on a closed registry.
	ErrRegistryClosed Error = "timer registry closed"
	// ErrActionDispatch reports a per-timer action failure. It never aborts
	// an expiration pass; it is delivered to registered error handlers.
	ErrActionDispatch Error = "action dispatch failed"
)

// Error represents an engine error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

// NewClockUnavailableError creates a new error with [ErrClockUnavailable] or
// wraps provided error with [ErrClockUnavailable].
func NewClockUnavailableError(args ...any) error {
	return errorutil.NewWrapperError(ErrClockUnavailable, args...) //errtrace:skip
}
