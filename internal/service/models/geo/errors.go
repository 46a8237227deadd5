package geo

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies geolocation failures.
type ErrorCode int

const (
	Unknown ErrorCode = iota
	PermissionDenied
	PositionUnavailable
	Timeout
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a typed geolocation failure.
type Error struct {
	Code ErrorCode
	Err  error
}

// NewError wraps err with a code.
func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "geolocation: " + e.Code.String()
	}

	return fmt.Sprintf("geolocation: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable is false only for denied permission, which needs user action.
func (e *Error) Retryable() bool {
	return e.Code != PermissionDenied
}

// Remediation is the message shown to the customer for this failure.
func (e *Error) Remediation() string {
	switch e.Code {
	case PermissionDenied:
		return "Location access was denied. Allow location access in your browser or device settings, then try again."
	case PositionUnavailable:
		return "Your current location could not be determined. Make sure location services are on and the signal is good."
	case Timeout:
		return "Locating you took too long. Try again or move to an open area."
	default:
		return "Something went wrong while locating you. Please try again."
	}
}

// AsError classifies any error as a *Error. Context deadlines become Timeout.
func AsError(err error) *Error {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(Timeout, err)
	}

	return NewError(Unknown, err)
}
