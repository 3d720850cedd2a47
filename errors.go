package medino

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrNilMessage is returned when a nil command, request, or notification is
// passed to the mediator. Checked before any handler resolution.
var ErrNilMessage = errors.New("medino: nil message")

// ErrNoHandler is the sentinel matched by errors.Is for HandlerNotFoundError.
var ErrNoHandler = errors.New("medino: no handler registered")

// HandlerNotFoundError is returned when no handler is registered for a
// command or request type. It satisfies errors.Is(err, ErrNoHandler).
type HandlerNotFoundError struct {
	Kind     MessageKind
	Message  reflect.Type
	Response reflect.Type // nil for commands
}

func (e *HandlerNotFoundError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("medino: no %s handler registered for %s (response %s)", e.Kind, e.Message, e.Response)
	}
	return fmt.Sprintf("medino: no %s handler registered for %s", e.Kind, e.Message)
}

func (e *HandlerNotFoundError) Is(target error) bool { return target == ErrNoHandler }

// TypeMismatchError is returned when a pipeline stage observes a value of an
// unexpected concrete type, e.g. a context behavior replaced the request with
// a value the handler cannot accept, or Send was instantiated with a response
// type that doesn't match the recovered fallback.
type TypeMismatchError struct {
	Got  reflect.Type
	Want reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("medino: value has type %s, want %s", e.Got, e.Want)
}

// ValidationError wraps a message validation failure so callers and hooks can
// identify it.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// isCancellation reports whether err represents context cancellation rather
// than a handler failure. Cancellation bypasses failure resolution.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
