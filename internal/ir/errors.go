package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes ezql errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedConstruct indicates a dialect was asked to translate a
	// Type, Value, Property or WhereClause variant it does not implement.
	ErrCodeUnsupportedConstruct ErrorCode = "UNSUPPORTED_CONSTRUCT"

	// ErrCodeMalformedQueryIR indicates structurally invalid IR, detected
	// before any SQL text is emitted.
	ErrCodeMalformedQueryIR ErrorCode = "MALFORMED_QUERY_IR"

	// ErrCodeConversion indicates a native scalar coercion failed.
	ErrCodeConversion ErrorCode = "CONVERSION_ERROR"

	// ErrCodeExec indicates the execution seam failed. The cause is kept
	// unchanged in Err.
	ErrCodeExec ErrorCode = "EXEC_ERROR"
)

// Error is the typed failure surfaced by every ezql layer.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Dialect names the dialect that rejected a construct (UNSUPPORTED_CONSTRUCT only).
	Dialect string

	// Err is the underlying cause (EXEC_ERROR only).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Dialect != "" {
		return fmt.Sprintf("%s: %s (dialect=%s)", e.Code, e.Message, e.Dialect)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewUnsupportedError creates an UNSUPPORTED_CONSTRUCT error for construct.
// A nil construct is reported as missing.
func NewUnsupportedError(dialect, kind string, construct any) *Error {
	msg := fmt.Sprintf("%s %T is not supported", kind, construct)
	if construct == nil {
		msg = fmt.Sprintf("missing %s", kind)
	}
	return &Error{
		Code:    ErrCodeUnsupportedConstruct,
		Message: msg,
		Dialect: dialect,
	}
}

// NewMalformedError creates a MALFORMED_QUERY_IR error.
func NewMalformedError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMalformedQueryIR,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConversionError creates a CONVERSION_ERROR.
func NewConversionError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeConversion,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewExecError wraps an execution failure without reinterpreting it.
func NewExecError(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeExec,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnsupported returns true if the error is an UNSUPPORTED_CONSTRUCT error.
func IsUnsupported(err error) bool {
	return HasCode(err, ErrCodeUnsupportedConstruct)
}

// IsMalformed returns true if the error is a MALFORMED_QUERY_IR error.
func IsMalformed(err error) bool {
	return HasCode(err, ErrCodeMalformedQueryIR)
}

// IsConversion returns true if the error is a CONVERSION_ERROR.
func IsConversion(err error) bool {
	return HasCode(err, ErrCodeConversion)
}

// IsExec returns true if the error is an EXEC_ERROR.
func IsExec(err error) bool {
	return HasCode(err, ErrCodeExec)
}
