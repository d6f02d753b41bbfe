package dispatcher

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes dispatcher errors.
type ErrorCode string

const (
	// ErrCodeInvalidHandler indicates Register was given a nil handler.
	ErrCodeInvalidHandler ErrorCode = "INVALID_HANDLER"

	// ErrCodeAlreadyDispatching indicates Dispatch was called during a broadcast.
	ErrCodeAlreadyDispatching ErrorCode = "ALREADY_DISPATCHING"

	// ErrCodeNotDispatching indicates WaitFor was called outside a broadcast.
	ErrCodeNotDispatching ErrorCode = "NOT_DISPATCHING"

	// ErrCodeNotRegistered indicates a token that does not map to a handler.
	ErrCodeNotRegistered ErrorCode = "NOT_REGISTERED"

	// ErrCodeCyclicWait indicates WaitFor on a handler that is still running
	// further up the call stack.
	ErrCodeCyclicWait ErrorCode = "CYCLIC_WAIT"
)

// Error is a dispatcher misuse error.
//
// Errors compare equal under errors.Is when their codes match, so callers
// can test against the Err* sentinels regardless of which token failed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Token identifies the handler involved, if any.
	Token Token
}

// Sentinel errors for errors.Is.
var (
	ErrInvalidHandler     = &Error{Code: ErrCodeInvalidHandler, Message: "handler must be a non-nil function"}
	ErrAlreadyDispatching = &Error{Code: ErrCodeAlreadyDispatching, Message: "cannot dispatch in the middle of a dispatch"}
	ErrNotDispatching     = &Error{Code: ErrCodeNotDispatching, Message: "must be invoked while dispatching"}
	ErrNotRegistered      = &Error{Code: ErrCodeNotRegistered, Message: "token does not map to a registered handler"}
	ErrCyclicWait         = &Error{Code: ErrCodeCyclicWait, Message: "circular dependency detected while waiting"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (token=%s)", e.Code, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a dispatcher error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message string, token Token) *Error {
	return &Error{Code: code, Message: message, Token: token}
}

// IsCyclicWait returns true if err is (or wraps) a cyclic wait error.
func IsCyclicWait(err error) bool {
	return codeOf(err) == ErrCodeCyclicWait
}

// IsAlreadyDispatching returns true if err is (or wraps) a re-entrant dispatch error.
func IsAlreadyDispatching(err error) bool {
	return codeOf(err) == ErrCodeAlreadyDispatching
}

// CodeOf extracts the dispatcher error code, or "" if err is not a dispatcher error.
func CodeOf(err error) ErrorCode {
	return codeOf(err)
}

func codeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
