package rowkit

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the failure class of an *Error.
type ErrorCode string

const (
	// CodeInvalidRequest marks an operation attempted in the wrong lifecycle
	// state, such as creating a record that already has an id.
	CodeInvalidRequest ErrorCode = "invalid_request"
	// CodeNotFound marks an id or first-row lookup with no match.
	CodeNotFound ErrorCode = "not_found"
	// CodeValueExists marks a uniqueness violation on a non-identifier column.
	CodeValueExists ErrorCode = "value_exists"
	// CodeParameterFormat marks malformed filter or column arguments.
	CodeParameterFormat ErrorCode = "parameter_format"
	// CodeEncoding marks a value-kind transcoding failure.
	CodeEncoding ErrorCode = "encoding"
	// CodeUnavailable marks a refused connection to the storage engine.
	CodeUnavailable ErrorCode = "unavailable"
	// CodeStorage is the catch-all for other execution failures.
	CodeStorage ErrorCode = "storage"
	// CodeRetryExhausted marks an exceeded id-collision retry bound.
	CodeRetryExhausted ErrorCode = "retry_exhausted"
)

// Error is the structured error returned by operations in this package.
type Error struct {
	Code  ErrorCode
	Field string // offending field label when Code is CodeValueExists
	msg   string
	cause error
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("rowkit: [%s] %s: %v", e.Code, e.msg, e.cause)
	}
	return fmt.Sprintf("rowkit: [%s] %s", e.Code, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the ErrorCode carried by err, or the empty string when err
// does not wrap an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// errIDCollision signals a primary-key collision during create. It is
// consumed by the create retry loop and never escapes the package.
var errIDCollision = errors.New("rowkit: id collision")
