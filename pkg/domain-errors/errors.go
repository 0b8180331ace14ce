// Package domainerrors carries coded errors from services to the transport
// layer. Codes are stable strings that double as the JSON "error" field.
package domainerrors

import (
	"errors"
)

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest    Code = "bad_request"
	CodeValidation    Code = "validation_error"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeQueueEmpty    Code = "queue_empty"
	CodeNothingToUndo Code = "nothing_to_undo"
	CodePersistence   Code = "persistence_failed"
	CodeTimeout       Code = "timeout"
	CodeInternal      Code = "internal_error"
)

// Error is a domain error with a machine readable code and a safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any domain error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// As extracts the outermost domain error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
