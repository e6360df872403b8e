package apperr

import (
	"errors"
	"fmt"
)

// Code is the stable, client-visible error code.
type Code string

const (
	CodeValidation           Code = "ValidationError"
	CodeMissingRequiredField Code = "MissingRequiredField"
	CodeNotFound             Code = "NotFound"
	CodeForbidden            Code = "Forbidden"
	CodeInvalidTransition    Code = "InvalidTransition"
	CodeWrongJobType         Code = "WrongJobType"
	CodeInvalidCounterOffer  Code = "InvalidCounterOffer"
	CodeNothingToAccept      Code = "NothingToAccept"
	CodeConflict             Code = "Conflict"
	CodeInternal             Code = "Internal"
)

type Error struct {
	Code    Code
	Message string
	// Details carries retry-with-correction hints (valid next states, field names).
	Details any
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func WithDetails(code Code, message string, details any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// CodeOf extracts the taxonomy code, defaulting unknown errors to Internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
