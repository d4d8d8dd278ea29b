package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper tags errors of one module operation with a user-facing message.
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper creates a wrapper for operation in module.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap attaches userMessage to err. A nil err stays nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{Module: w.module, Operation: w.operation, Cause: err, UserMessage: userMessage}
}

// Wrapf is Wrap with a formatted message.
func (w *ErrorWrapper) Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return w.Wrap(err, fmt.Sprintf(format, args...))
}

// WrappedError carries the internal cause next to the message shown to users.
type WrappedError struct {
	Module      string // e.g. "snapshot"
	Operation   string // e.g. "publish"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("%s.%s: %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user-friendly message from a WrappedError anywhere in the chain.
// Returns the error string if there is none.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	return err.Error()
}
