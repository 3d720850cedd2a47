package medino

import (
	"context"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"
)

// Mediator dispatches messages to handlers registered with a Resolver.
//
// Usage:
//  1. Create a Registry and register handlers and behaviors
//  2. Create a mediator with New
//  3. Dispatch commands, Send requests, Publish notifications
//
// A Mediator holds the Resolver and configured hooks and nothing else. It is
// safe for concurrent use once the backing resolver is fully configured, and
// it is an explicit value: create one and pass it where it is needed.
type Mediator struct {
	resolver Resolver
	hooks    hooks
}

// New creates a Mediator backed by the given resolver.
//
// Example:
//
//	reg := medino.NewRegistry()
//	medino.RegisterRequestFunc(reg, getNumber)
//
//	m := medino.New(reg,
//	    medino.WithOnFailure(func(ctx context.Context, kind medino.MessageKind, message string, err error, d time.Duration) {
//	        logger.ErrorContext(ctx, "dispatch failed", "message", message, "error", err)
//	    }),
//	)
func New(resolver Resolver, opts ...Option) *Mediator {
	m := &Mediator{resolver: resolver}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch sends a command to its single registered handler. Commands have
// no response and no pipeline: behaviors and error handlers do not apply,
// and handler errors propagate unchanged.
//
// Returns ErrNilMessage for a nil command and a HandlerNotFoundError when no
// handler is registered for the command's concrete type.
func (m *Mediator) Dispatch(ctx context.Context, cmd any) error {
	if isNilMessage(cmd) {
		return ErrNilMessage
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmdType := reflect.TypeOf(cmd)
	v, ok := m.resolver.Resolve(Capability{Kind: CapCommandHandler, Request: cmdType})
	if !ok {
		return &HandlerNotFoundError{Kind: KindCommand, Message: cmdType}
	}
	invoke := v.(CommandInvoker)

	m.callOnDispatch(ctx, KindCommand, cmdType.String())
	start := time.Now()
	err := invoke(ctx, cmd)
	m.callOutcome(ctx, KindCommand, cmdType.String(), err, time.Since(start))
	return err
}

// Send dispatches a request through its pipeline and returns the typed
// response. The response type T must match the registration; a mismatch
// reports HandlerNotFoundError since the (request, response) pair identifies
// the handler.
//
// Execution order: context behaviors, then regular behaviors, both nesting
// in registration order, then the handler. When no behaviors are registered
// the handler is invoked directly. On failure the error handlers and error
// actions for the request run per the failure protocol; cancellation skips
// them and surfaces as ctx.Err().
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
func Send[T any](ctx context.Context, m *Mediator, req any) (T, error) {
	var zero T
	if isNilMessage(req) {
		return zero, ErrNilMessage
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	reqType := reflect.TypeOf(req)
	respType := typeOf[T]()
	v, ok := m.resolver.Resolve(Capability{Kind: CapRequestHandler, Request: reqType, Response: respType})
	if !ok {
		return zero, &HandlerNotFoundError{Kind: KindRequest, Message: reqType, Response: respType}
	}
	invoke := v.(RequestInvoker)

	pc := newPipelineContext(req)
	terminal := func(ctx context.Context) (any, error) {
		return invoke(ctx, pc.Request())
	}

	contextBehaviors := m.pipelineFuncs(CapContextBehavior, reqType, respType)
	behaviors := m.pipelineFuncs(CapBehavior, reqType, respType)

	// Fast path: nothing to compose. Failure resolution still applies.
	pipeline := Next[any](terminal)
	if len(contextBehaviors) > 0 || len(behaviors) > 0 {
		pipeline = buildPipeline(pc, terminal, behaviors, contextBehaviors)
	}

	m.callOnDispatch(ctx, KindRequest, reqType.String())
	start := time.Now()
	out, err := pipeline(ctx)
	if err != nil {
		out, err = m.resolveFailure(ctx, pc, reqType, respType, err)
	}
	m.callOutcome(ctx, KindRequest, reqType.String(), err, time.Since(start))

	if err != nil {
		return zero, err
	}
	resp, ok := out.(T)
	if !ok && out != nil {
		return zero, &TypeMismatchError{Got: reflect.TypeOf(out), Want: respType}
	}
	return resp, nil
}

// Publish delivers a notification to every registered handler concurrently
// and waits for all of them. Zero handlers is a successful no-op.
//
// All handlers run to completion even when one fails; the first error
// returned from the group is the one surfaced. Relative execution order
// between handlers is not guaranteed.
func (m *Mediator) Publish(ctx context.Context, note any) error {
	if isNilMessage(note) {
		return ErrNilMessage
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	noteType := reflect.TypeOf(note)
	handlers := m.resolver.ResolveAll(Capability{Kind: CapNotificationHandler, Request: noteType})
	if len(handlers) == 0 {
		return nil
	}

	m.callOnDispatch(ctx, KindNotification, noteType.String())
	start := time.Now()

	var g errgroup.Group
	for _, v := range handlers {
		invoke, ok := v.(NotificationInvoker)
		if !ok {
			continue
		}
		g.Go(func() error {
			return invoke(ctx, note)
		})
	}
	err := g.Wait()

	m.callOutcome(ctx, KindNotification, noteType.String(), err, time.Since(start))
	return err
}

func (m *Mediator) pipelineFuncs(kind CapabilityKind, reqType, respType reflect.Type) []PipelineFunc {
	resolved := m.resolver.ResolveAll(Capability{Kind: kind, Request: reqType, Response: respType})
	if len(resolved) == 0 {
		return nil
	}
	out := make([]PipelineFunc, 0, len(resolved))
	for _, v := range resolved {
		if fn, ok := v.(PipelineFunc); ok {
			out = append(out, fn)
		}
	}
	return out
}
