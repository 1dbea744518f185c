package docdex

import (
	"errors"
	"fmt"
)

// Application error codes. These map domain failures to coarse categories
// that callers can branch on without string matching.
const (
	ECONFLICT    = "conflict"    // action cannot be performed in current state
	EINTERNAL    = "internal"    // internal error, a bug if ever user-visible
	EINVALID     = "invalid"     // validation failed on caller input
	ENOTFOUND    = "not_found"   // entity does not exist
	EQUOTA       = "quota"       // provider quota exhausted, retrying cannot help
	EUNAVAILABLE = "unavailable" // transient condition, safe to retry
)

// Error represents an application-specific error with a machine-readable
// code and a human-readable message.
type Error struct {
	// Code is one of the E* constants above.
	Code string

	// Message is a human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("docdex error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper for constructing an *Error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps err and returns its code, if any.
// Non-application errors report EINTERNAL; nil reports an empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps err and returns its message, if any.
// Non-application errors report a generic message; nil reports an empty string.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
