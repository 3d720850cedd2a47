package medino

import (
	"context"
	"errors"
	"reflect"
)

// CapabilityKind names one of the slots a Resolver can be asked about.
type CapabilityKind int

const (
	CapCommandHandler CapabilityKind = iota
	CapRequestHandler
	CapNotificationHandler
	CapContextBehavior
	CapBehavior
	CapErrorHandler
	CapErrorAction
)

// Capability identifies one resolvable binding: the kind plus the message
// type it applies to, and for request-shaped kinds the response type.
type Capability struct {
	Kind     CapabilityKind
	Request  reflect.Type
	Response reflect.Type
}

// Resolver supplies registered implementations to the mediator. The mediator
// holds a Resolver and nothing else, so any container can back it; Registry
// is the in-package implementation.
//
// Resolve returns the single instance for kinds that expect exactly one
// (command and request handlers). ResolveAll returns every instance for the
// capability in registration order, possibly none.
//
// The values returned are the type-erased invoker forms declared in this
// package: CommandInvoker, RequestInvoker, NotificationInvoker, PipelineFunc,
// ErrorRecoverer, ErrorObserver.
type Resolver interface {
	Resolve(c Capability) (any, bool)
	ResolveAll(c Capability) []any
}

// CommandInvoker is the erased form of a registered command handler.
type CommandInvoker func(ctx context.Context, cmd any) error

// RequestInvoker is the erased form of a registered request handler.
type RequestInvoker func(ctx context.Context, req any) (any, error)

// NotificationInvoker is the erased form of a registered notification handler.
type NotificationInvoker func(ctx context.Context, note any) error

// Registry stores handlers, behaviors, and error hooks keyed by message type
// and implements Resolver. Configure it fully before the first dispatch:
// Registry is safe for concurrent reads but not for registration concurrent
// with dispatch.
type Registry struct {
	commands      map[reflect.Type]CommandInvoker
	requests      map[typePair]RequestInvoker
	notifications map[reflect.Type][]NotificationInvoker

	contextBehaviors []behaviorEntry
	behaviors        []behaviorEntry
	errorHandlers    []errorHandlerEntry
	errorActions     []errorActionEntry
}

type typePair struct {
	request  reflect.Type
	response reflect.Type
}

// behaviorEntry holds one registered behavior. A nil request type is the
// broad binding: the behavior applies to every request with that response
// type. Append order is registration order, so merging broad and concrete
// entries needs no extra bookkeeping.
type behaviorEntry struct {
	request  reflect.Type // nil matches any request
	response reflect.Type
	fn       PipelineFunc
}

type errorHandlerEntry struct {
	request  reflect.Type
	response reflect.Type
	fn       ErrorRecoverer
}

type errorActionEntry struct {
	request reflect.Type
	fn      ErrorObserver
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[reflect.Type]CommandInvoker),
		requests:      make(map[typePair]RequestInvoker),
		notifications: make(map[reflect.Type][]NotificationInvoker),
	}
}

// Resolve implements Resolver for single-instance capabilities.
func (r *Registry) Resolve(c Capability) (any, bool) {
	switch c.Kind {
	case CapCommandHandler:
		h, ok := r.commands[c.Request]
		return h, ok
	case CapRequestHandler:
		h, ok := r.requests[typePair{request: c.Request, response: c.Response}]
		return h, ok
	}
	return nil, false
}

// ResolveAll implements Resolver for multi-instance capabilities.
func (r *Registry) ResolveAll(c Capability) []any {
	switch c.Kind {
	case CapNotificationHandler:
		hs := r.notifications[c.Request]
		out := make([]any, len(hs))
		for i, h := range hs {
			out[i] = h
		}
		return out
	case CapContextBehavior:
		return matchBehaviors(r.contextBehaviors, c)
	case CapBehavior:
		return matchBehaviors(r.behaviors, c)
	case CapErrorHandler:
		var out []any
		for _, e := range r.errorHandlers {
			if e.request == c.Request && e.response == c.Response {
				out = append(out, e.fn)
			}
		}
		return out
	case CapErrorAction:
		var out []any
		for _, e := range r.errorActions {
			if e.request == c.Request {
				out = append(out, e.fn)
			}
		}
		return out
	}
	return nil
}

func matchBehaviors(entries []behaviorEntry, c Capability) []any {
	var out []any
	for _, e := range entries {
		if e.response != c.Response {
			continue
		}
		if e.request != nil && e.request != c.Request {
			continue
		}
		out = append(out, e.fn)
	}
	return out
}

// RegisterCommand adds the handler for command type C. A later registration
// for the same type replaces the earlier one.
//
// This is a package-level function (not a method) due to Go generics
// limitations: methods cannot have type parameters independent of the
// receiver.
func RegisterCommand[C any](r *Registry, h CommandHandler[C]) {
	r.commands[typeOf[C]()] = func(ctx context.Context, cmd any) error {
		c, ok := cmd.(C)
		if !ok {
			return &TypeMismatchError{Got: reflect.TypeOf(cmd), Want: typeOf[C]()}
		}
		return h.Handle(ctx, c)
	}
}

// RegisterCommandFunc is a convenience for registering a handler function.
func RegisterCommandFunc[C any](r *Registry, fn func(ctx context.Context, cmd C) error) {
	RegisterCommand(r, CommandHandlerFunc[C](fn))
}

// RegisterRequest adds the handler for request type R producing response T.
// A later registration for the same pair replaces the earlier one.
func RegisterRequest[R, T any](r *Registry, h RequestHandler[R, T]) {
	key := typePair{request: typeOf[R](), response: typeOf[T]()}
	r.requests[key] = func(ctx context.Context, req any) (any, error) {
		rr, ok := req.(R)
		if !ok {
			return nil, &TypeMismatchError{Got: reflect.TypeOf(req), Want: typeOf[R]()}
		}
		return h.Handle(ctx, rr)
	}
}

// RegisterRequestFunc is a convenience for registering a handler function.
func RegisterRequestFunc[R, T any](r *Registry, fn func(ctx context.Context, req R) (T, error)) {
	RegisterRequest(r, RequestHandlerFunc[R, T](fn))
}

// RegisterNotification adds a handler for notification type N. Multiple
// handlers may be registered; Publish runs them all.
func RegisterNotification[N any](r *Registry, h NotificationHandler[N]) {
	t := typeOf[N]()
	r.notifications[t] = append(r.notifications[t], func(ctx context.Context, note any) error {
		n, ok := note.(N)
		if !ok {
			return &TypeMismatchError{Got: reflect.TypeOf(note), Want: t}
		}
		return h.Handle(ctx, n)
	})
}

// RegisterNotificationFunc is a convenience for registering a handler function.
func RegisterNotificationFunc[N any](r *Registry, fn func(ctx context.Context, note N) error) {
	RegisterNotification(r, NotificationHandlerFunc[N](fn))
}

// RegisterBehavior adds a behavior for request type R producing response T.
// Behaviors nest in registration order: first registered runs outermost.
func RegisterBehavior[R, T any](r *Registry, b Behavior[R, T]) {
	r.behaviors = append(r.behaviors, behaviorEntry{
		request:  typeOf[R](),
		response: typeOf[T](),
		fn: func(ctx context.Context, pc *PipelineContext, next Next[any]) (any, error) {
			req, ok := pc.Request().(R)
			if !ok {
				return nil, &TypeMismatchError{Got: reflect.TypeOf(pc.Request()), Want: typeOf[R]()}
			}
			return b.Handle(ctx, req, narrow[T](next))
		},
	})
}

// RegisterBehaviorFunc is a convenience for registering a behavior function.
func RegisterBehaviorFunc[R, T any](r *Registry, fn func(ctx context.Context, req R, next Next[T]) (T, error)) {
	RegisterBehavior(r, BehaviorFunc[R, T](fn))
}

// RegisterBehaviorForAll adds a broad behavior: it applies to every request
// whose response type is T, and shares registration ordering with behaviors
// registered for concrete request types.
func RegisterBehaviorForAll[T any](r *Registry, b AnyBehavior[T]) {
	r.behaviors = append(r.behaviors, behaviorEntry{
		response: typeOf[T](),
		fn: func(ctx context.Context, pc *PipelineContext, next Next[any]) (any, error) {
			return b.Handle(ctx, pc.Request(), narrow[T](next))
		},
	})
}

// RegisterContextBehavior adds a context behavior for request type R
// producing response T. Context behaviors run outside all regular behaviors
// and may replace the request via the PipelineContext. R must be given
// explicitly since the behavior only sees the context:
//
//	medino.RegisterContextBehavior[GetOrder](reg, normalizeOrder{})
func RegisterContextBehavior[R, T any](r *Registry, b ContextBehavior[T]) {
	r.contextBehaviors = append(r.contextBehaviors, behaviorEntry{
		request:  typeOf[R](),
		response: typeOf[T](),
		fn:       eraseContextBehavior(b),
	})
}

// RegisterContextBehaviorForAll adds a context behavior applying to every
// request whose response type is T.
func RegisterContextBehaviorForAll[T any](r *Registry, b ContextBehavior[T]) {
	r.contextBehaviors = append(r.contextBehaviors, behaviorEntry{
		response: typeOf[T](),
		fn:       eraseContextBehavior(b),
	})
}

func eraseContextBehavior[T any](b ContextBehavior[T]) PipelineFunc {
	return func(ctx context.Context, pc *PipelineContext, next Next[any]) (any, error) {
		return b.Handle(ctx, pc, narrow[T](next))
	}
}

// RegisterErrorHandler adds a recovery handler for failures of request type R
// (response T) whose error matches E via errors.As. Wrapped errors match.
func RegisterErrorHandler[R, T any, E error](r *Registry, h ErrorHandler[R, T, E]) {
	r.errorHandlers = append(r.errorHandlers, errorHandlerEntry{
		request:  typeOf[R](),
		response: typeOf[T](),
		fn: func(ctx context.Context, req any, err error, rec *Recovery) error {
			rr, ok := req.(R)
			if !ok {
				return nil
			}
			var e E
			if !errors.As(err, &e) {
				return nil
			}
			return h.HandleError(ctx, rr, e, rec)
		},
	})
}

// RegisterErrorHandlerFunc is a convenience for registering a handler function.
func RegisterErrorHandlerFunc[R, T any, E error](r *Registry, fn func(ctx context.Context, req R, err E, rec *Recovery) error) {
	RegisterErrorHandler[R, T, E](r, ErrorHandlerFunc[R, T, E](fn))
}

// RegisterErrorAction adds an observation/translation action for failures of
// request type R whose error matches E via errors.As.
func RegisterErrorAction[R any, E error](r *Registry, a ErrorAction[R, E]) {
	r.errorActions = append(r.errorActions, errorActionEntry{
		request: typeOf[R](),
		fn: func(ctx context.Context, req any, err error) error {
			rr, ok := req.(R)
			if !ok {
				return nil
			}
			var e E
			if !errors.As(err, &e) {
				return nil
			}
			return a.OnError(ctx, rr, e)
		},
	})
}

// RegisterErrorActionFunc is a convenience for registering an action function.
func RegisterErrorActionFunc[R any, E error](r *Registry, fn func(ctx context.Context, req R, err E) error) {
	RegisterErrorAction[R, E](r, ErrorActionFunc[R, E](fn))
}

// typeOf returns the reflect.Type identity for X without needing a value,
// including interface and pointer types.
func typeOf[X any]() reflect.Type {
	return reflect.TypeOf((*X)(nil)).Elem()
}

// isNilMessage reports whether msg is absent: a nil interface or a typed nil
// pointer/map/slice.
func isNilMessage(msg any) bool {
	if msg == nil {
		return true
	}
	v := reflect.ValueOf(msg)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
