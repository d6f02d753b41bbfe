package flux

import (
	"errors"
	"fmt"

	"github.com/roach88/fluxury/internal/dispatcher"
)

// ErrorCode categorizes flux errors.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates bad constructor input.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeInvalidAction indicates a dispatch input that cannot be broadcast.
	ErrCodeInvalidAction ErrorCode = "INVALID_ACTION"

	// ErrCodeReducerPanic indicates a reducer or listener panicked mid-broadcast.
	ErrCodeReducerPanic ErrorCode = "REDUCER_PANIC"
)

// Error is a flux-level error with a stable code.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Store names the store involved, if any.
	Store string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinel errors for errors.Is.
var (
	ErrInvalidArgument = &Error{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
	ErrInvalidAction   = &Error{Code: ErrCodeInvalidAction, Message: "invalid action"}
	ErrReducerPanic    = &Error{Code: ErrCodeReducerPanic, Message: "reducer panicked"}
)

// Dispatcher errors surface unchanged through flux.
var (
	ErrAlreadyDispatching = dispatcher.ErrAlreadyDispatching
	ErrCyclicWait         = dispatcher.ErrCyclicWait
	ErrNotRegistered      = dispatcher.ErrNotRegistered
	ErrNotDispatching     = dispatcher.ErrNotDispatching
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Store != "" {
		msg = fmt.Sprintf("%s (store=%s)", msg, e.Store)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a flux error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func invalidArgument(store, format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...), Store: store}
}

func invalidAction(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidAction, Message: fmt.Sprintf(format, args...)}
}

// Code returns the stable code of a flux or dispatcher error, or "" for
// anything else (for example an error returned by a reducer).
func Code(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return string(fe.Code)
	}
	if c := dispatcher.CodeOf(err); c != "" {
		return string(c)
	}
	return ""
}
