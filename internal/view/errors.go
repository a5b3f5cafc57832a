package view

import (
	"errors"
	"net/http"
)

// Kind classifies an error shown to the user.
type Kind int

const (
	// NotFound: the record is absent after a successful fetch.
	NotFound Kind = iota + 1
	// ValidationMismatch: input disagrees with the stored record or is malformed.
	ValidationMismatch
	// TransportFailure: the fetch or update call itself failed.
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ValidationMismatch:
		return "validation_mismatch"
	case TransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Status maps a kind to the HTTP status used when it is rendered.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case ValidationMismatch:
		return http.StatusUnprocessableEntity
	case TransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a recoverable failure carrying the plain-text message to show.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// AsError extracts a view error from err.
func AsError(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

const (
	msgIDMismatch      = "ID does not Match."
	msgProfileNotFound = "Student data not found."
	msgNotFound        = "Student not found."
	msgFetchFailed     = "Error fetching student data."
	msgLookupMismatch  = "Student not found or department mismatch."
	msgLookupFailed    = "Error fetching student details."
	msgUpdateFailed    = "Error updating student."
	msgBadResult       = "CGPA must be a number between 0.00 and 4.00."

	// MsgUpdated is shown after a successful save.
	MsgUpdated = "Student updated successfully."
)
