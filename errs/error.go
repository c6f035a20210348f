package errs

import (
	"errors"
	"fmt"
)

// Application error codes. They describe the broad class of a failure so
// that callers (and eventually a presentation layer) can map it without
// inspecting message strings:
// EINVALID and ECONFLICT map to a "bad request" class, ENOTFOUND to
// "not found", EUNAUTHORIZED to "forbidden", and EINTERNAL to a generic,
// retryable failure.
const (
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
)

// Error represents an application error with a machine-readable Code and
// a human-readable Message. The Message of any error that is not EINTERNAL
// is safe to show to the end user.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("error: code=%s message=%s", e.Code, e.Message)
}

// Errorf returns a new Error with the given code and a formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an error and returns its message.
// Non-application errors always return the generic message, so that
// internal details never leak to the end user.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

const (
	// UserIdRequired is returned when a create is attempted without
	// the acting user's ID.
	UserIdRequired privateError = "models: user ID is required"
)

type privateError string

func (e privateError) Error() string {
	return string(e)
}
