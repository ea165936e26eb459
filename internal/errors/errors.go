package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons a slot can be refused. Kept machine-readable so view adapters
// can map them to user-facing messages.
const (
	ReasonDateBlocked  = "date-blocked"
	ReasonLeadTime     = "lead-time"
	ReasonSlotOccupied = "slot-occupied"
	ReasonUnknownSlot  = "unknown-slot"
)

// ErrNotFound is returned when an operation references a booking or
// blocked date that does not exist. Listing paths never return it;
// absence there yields an empty result.
var ErrNotFound = errors.New("not found")

// SlotUnavailableError reports why a (date, timeSlot) pair cannot take a
// booking. It is an expected, recoverable outcome, not a server fault.
type SlotUnavailableError struct {
	Date     string
	TimeSlot string
	Reason   string
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s %s unavailable: %s", e.Date, e.TimeSlot, e.Reason)
}

// SlotUnavailable builds a SlotUnavailableError with the given reason.
func SlotUnavailable(date, timeSlot, reason string) *SlotUnavailableError {
	return &SlotUnavailableError{Date: date, TimeSlot: timeSlot, Reason: reason}
}

// IsSlotUnavailable reports whether err is a SlotUnavailableError.
func IsSlotUnavailable(err error) bool {
	var su *SlotUnavailableError
	return errors.As(err, &su)
}

// PersistenceError wraps a failed store read or write. Reads recover by
// treating the store as empty; writes surface this as a hard failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for operation op.
func Persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
)
