// Package errors provides structured error types for pcegraph.
//
// Two severities exist in a graph computation:
//   - fatal: the whole request aborts and no graph is produced
//   - soft: a single node or link is rejected and the build continues
//
// Both are expressed as *Error values carrying a machine-readable [Code], so
// callers can tell them apart with [Is] or [IsFatal] without string matching.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedServiceType, "format %s rate %d", f, r)
//	if errors.IsFatal(err) {
//	    // abort the request
//	}
//
//	// Wrap an underlying failure
//	err := errors.Wrap(errors.ErrCodeTopologyRead, origErr, "read %s", network)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Fatal error codes. Any of these aborts the computation.
const (
	ErrCodeInvalidRequest         Code = "INVALID_REQUEST"
	ErrCodeUnsupportedServiceType Code = "UNSUPPORTED_SERVICE_TYPE"
	ErrCodeEndpointUnresolved     Code = "ENDPOINT_UNRESOLVED"
	ErrCodeEmptyGraph             Code = "EMPTY_GRAPH"
	ErrCodeTopologyRead           Code = "TOPOLOGY_READ"
	ErrCodeInterrupted            Code = "INTERRUPTED"
	ErrCodeInternal               Code = "INTERNAL_ERROR"
)

// Soft error codes. These describe why a single entity was left out.
const (
	ErrCodeNodeRejected       Code = "NODE_REJECTED"
	ErrCodeLinkRejected       Code = "LINK_REJECTED"
	ErrCodeLinkIneligible     Code = "LINK_INELIGIBLE"
	ErrCodeConstraintExcluded Code = "CONSTRAINT_EXCLUDED"
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeNotFound           Code = "NOT_FOUND"
)

var fatalCodes = map[Code]bool{
	ErrCodeInvalidRequest:         true,
	ErrCodeUnsupportedServiceType: true,
	ErrCodeEndpointUnresolved:     true,
	ErrCodeEmptyGraph:             true,
	ErrCodeTopologyRead:           true,
	ErrCodeInterrupted:            true,
	ErrCodeInternal:               true,
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFatal reports whether err carries a code that aborts a computation.
// Errors without a code are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	code := GetCode(err)
	if code == "" {
		return true
	}
	return fatalCodes[code]
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
