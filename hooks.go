package medino

import (
	"context"
	"reflect"
	"time"
)

// OnDispatchFunc is called just before a handler (or pipeline) executes.
// message is the concrete type name of the command, request, or notification.
type OnDispatchFunc func(ctx context.Context, kind MessageKind, message string)

// OnSuccessFunc is called after a dispatch completes successfully.
type OnSuccessFunc func(ctx context.Context, kind MessageKind, message string, duration time.Duration)

// OnFailureFunc is called after a dispatch fails, with the error that will
// surface to the caller.
type OnFailureFunc func(ctx context.Context, kind MessageKind, message string, err error, duration time.Duration)

// OnRecoverFunc is called when an error handler recovers a request failure
// with a fallback response. The dispatch then counts as a success.
type OnRecoverFunc func(ctx context.Context, message string, err error)

// hooks holds all configured hook functions.
type hooks struct {
	onDispatch []OnDispatchFunc
	onSuccess  []OnSuccessFunc
	onFailure  []OnFailureFunc
	onRecover  []OnRecoverFunc
}

// Option configures a Mediator.
type Option func(*Mediator)

// WithOnDispatch adds a hook called just before each handler executes.
// Multiple hooks are called in order.
//
// Example:
//
//	medino.WithOnDispatch(func(ctx context.Context, kind medino.MessageKind, message string) {
//	    logger.InfoContext(ctx, "dispatching", "kind", kind, "message", message)
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(m *Mediator) {
		m.hooks.onDispatch = append(m.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a dispatch completes successfully.
// Multiple hooks are called in order.
//
// Example:
//
//	medino.WithOnSuccess(func(ctx context.Context, kind medino.MessageKind, message string, d time.Duration) {
//	    metrics.Timing("mediator.success", d, "message:"+message)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(m *Mediator) {
		m.hooks.onSuccess = append(m.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a dispatch fails.
// Multiple hooks are called in order.
//
// Example:
//
//	medino.WithOnFailure(func(ctx context.Context, kind medino.MessageKind, message string, err error, d time.Duration) {
//	    metrics.Incr("mediator.failure", "message:"+message)
//	    logger.ErrorContext(ctx, "dispatch failed", "error", err)
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(m *Mediator) {
		m.hooks.onFailure = append(m.hooks.onFailure, fn)
	}
}

// WithOnRecover adds a hook called when an error handler turns a request
// failure into a fallback response.
func WithOnRecover(fn OnRecoverFunc) Option {
	return func(m *Mediator) {
		m.hooks.onRecover = append(m.hooks.onRecover, fn)
	}
}

func (m *Mediator) callOnDispatch(ctx context.Context, kind MessageKind, message string) {
	for _, fn := range m.hooks.onDispatch {
		fn(ctx, kind, message)
	}
}

func (m *Mediator) callOutcome(ctx context.Context, kind MessageKind, message string, err error, d time.Duration) {
	if err != nil {
		for _, fn := range m.hooks.onFailure {
			fn(ctx, kind, message, err, d)
		}
		return
	}
	for _, fn := range m.hooks.onSuccess {
		fn(ctx, kind, message, d)
	}
}

func (m *Mediator) callOnRecover(ctx context.Context, reqType reflect.Type, err error) {
	for _, fn := range m.hooks.onRecover {
		fn(ctx, reqType.String(), err)
	}
}
