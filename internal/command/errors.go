// internal/command/errors.go
package command

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Every error returned by Client is an *Error whose
// Code is one of these; match with errors.Is.
var (
	ErrTransport      = errors.New("command: transport failure")
	ErrRejected       = errors.New("command: remote rejected")
	ErrBusy           = errors.New("command: busy")
	ErrTimeout        = errors.New("command: timeout")
	ErrNotImplemented = errors.New("command: not implemented")
	ErrNotReady       = errors.New("command: endpoints not ready")
	ErrClosed         = errors.New("command: client closed")
)

// Error is a failed command, converted at the client boundary.
type Error struct {
	Kind Kind
	Code error
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (%s)", e.Code, e.Kind)
	}
	return fmt.Sprintf("%v (%s): %v", e.Code, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

// Reason returns a short stable name for the failure class of err,
// suitable for display and log fields.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRejected):
		return "remote_rejected"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "transport_failure"
	}
}

func fail(kind Kind, code, cause error) *Error {
	return &Error{Kind: kind, Code: code, Err: cause}
}
