package medino

import (
	"context"
	"reflect"
)

// Recovery is the shared handling state threaded through error handlers for
// one failed dispatch. The first handler to call Recover wins; later calls
// are ignored and later handlers are never invoked.
type Recovery struct {
	handled  bool
	response any
}

// Recover marks the failure as handled and supplies the fallback response
// returned to the Send caller. Only the first call has effect.
func (r *Recovery) Recover(response any) {
	if r.handled {
		return
	}
	r.handled = true
	r.response = response
}

// Handled reports whether a handler recovered the failure.
func (r *Recovery) Handled() bool { return r.handled }

// Response returns the fallback response supplied to Recover.
func (r *Recovery) Response() any { return r.response }

// ErrorHandler is a recovery hook for request failures. It is invoked when a
// pipeline stage fails with an error matching E (via errors.As), and may call
// rec.Recover to replace the failure with a fallback response.
//
// Handlers for the same binding run in registration order; evaluation stops
// at the first one that recovers.
type ErrorHandler[R, T any, E error] interface {
	HandleError(ctx context.Context, req R, err E, rec *Recovery) error
}

// ErrorHandlerFunc is a function adapter for ErrorHandler.
type ErrorHandlerFunc[R, T any, E error] func(ctx context.Context, req R, err E, rec *Recovery) error

// HandleError implements the ErrorHandler interface.
func (f ErrorHandlerFunc[R, T, E]) HandleError(ctx context.Context, req R, err E, rec *Recovery) error {
	return f(ctx, req, err, rec)
}

// ErrorAction is an observation/translation hook that runs after recovery
// was not achieved. Returning nil leaves the current error untouched.
// Returning a non-nil error replaces the current error and skips the
// remaining actions; the replacement should wrap the original with %w so
// the cause stays retrievable.
type ErrorAction[R any, E error] interface {
	OnError(ctx context.Context, req R, err E) error
}

// ErrorActionFunc is a function adapter for ErrorAction.
type ErrorActionFunc[R any, E error] func(ctx context.Context, req R, err E) error

// OnError implements the ErrorAction interface.
func (f ErrorActionFunc[R, E]) OnError(ctx context.Context, req R, err E) error {
	return f(ctx, req, err)
}

// Type-erased forms stored in a registry. The typed Register adapters filter
// by request type assertion and errors.As before delegating, so a stage that
// doesn't match is a no-op.

// ErrorRecoverer is the erased form of ErrorHandler.
type ErrorRecoverer func(ctx context.Context, req any, err error, rec *Recovery) error

// ErrorObserver is the erased form of ErrorAction.
type ErrorObserver func(ctx context.Context, req any, err error) error

// resolveFailure runs the two-phase failure protocol for one failed Send:
// recovery handlers first (may replace the outcome), then actions (may
// replace the error). Cancellation is not a business failure and is
// propagated untouched.
func (m *Mediator) resolveFailure(ctx context.Context, pc *PipelineContext, reqType, respType reflect.Type, cause error) (any, error) {
	if isCancellation(cause) {
		return nil, cause
	}

	rec := &Recovery{}
	for _, v := range m.resolver.ResolveAll(Capability{Kind: CapErrorHandler, Request: reqType, Response: respType}) {
		h, ok := v.(ErrorRecoverer)
		if !ok {
			continue
		}
		if err := h(ctx, pc.Request(), cause, rec); err != nil {
			return nil, err
		}
		if rec.Handled() {
			m.callOnRecover(ctx, reqType, cause)
			return rec.Response(), nil
		}
	}

	current := cause
	for _, v := range m.resolver.ResolveAll(Capability{Kind: CapErrorAction, Request: reqType}) {
		a, ok := v.(ErrorObserver)
		if !ok {
			continue
		}
		if err := a(ctx, pc.Request(), current); err != nil {
			current = err
			break
		}
	}
	return nil, current
}
