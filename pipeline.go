package medino

import (
	"context"
	"reflect"
)

// Next is the continuation a behavior calls to run the rest of the pipeline.
// A behavior that doesn't call next short-circuits everything nested inside
// it, including the handler.
type Next[T any] func(ctx context.Context) (T, error)

// Behavior wraps handler execution for one request type. Behaviors run in
// registration order on the way in and reverse order on the way out. A
// behavior never replaces the request; use a ContextBehavior for that.
//
// Example:
//
//	type timing struct{}
//
//	func (timing) Handle(ctx context.Context, req GetOrder, next medino.Next[Order]) (Order, error) {
//	    start := time.Now()
//	    out, err := next(ctx)
//	    log.Printf("GetOrder took %v", time.Since(start))
//	    return out, err
//	}
type Behavior[R, T any] interface {
	Handle(ctx context.Context, req R, next Next[T]) (T, error)
}

// BehaviorFunc is a function adapter for Behavior.
type BehaviorFunc[R, T any] func(ctx context.Context, req R, next Next[T]) (T, error)

// Handle implements the Behavior interface.
func (f BehaviorFunc[R, T]) Handle(ctx context.Context, req R, next Next[T]) (T, error) {
	return f(ctx, req, next)
}

// AnyBehavior is the broad binding: it applies to every request whose
// response type is T, receiving the request as an opaque value. Concrete
// implementations type-switch on req only when they need to branch on the
// request subtype.
type AnyBehavior[T any] interface {
	Handle(ctx context.Context, req any, next Next[T]) (T, error)
}

// AnyBehaviorFunc is a function adapter for AnyBehavior.
type AnyBehaviorFunc[T any] func(ctx context.Context, req any, next Next[T]) (T, error)

// Handle implements the AnyBehavior interface.
func (f AnyBehaviorFunc[T]) Handle(ctx context.Context, req any, next Next[T]) (T, error) {
	return f(ctx, req, next)
}

// ContextBehavior receives the PipelineContext instead of the bare request,
// so it may replace the request and attach metadata before calling next.
// Context behaviors always run outside all regular behaviors.
type ContextBehavior[T any] interface {
	Handle(ctx context.Context, pc *PipelineContext, next Next[T]) (T, error)
}

// ContextBehaviorFunc is a function adapter for ContextBehavior.
type ContextBehaviorFunc[T any] func(ctx context.Context, pc *PipelineContext, next Next[T]) (T, error)

// Handle implements the ContextBehavior interface.
func (f ContextBehaviorFunc[T]) Handle(ctx context.Context, pc *PipelineContext, next Next[T]) (T, error) {
	return f(ctx, pc, next)
}

// PipelineContext carries one in-flight request through the pipeline. It is
// created per Send call, owned by that call, and discarded when it returns.
//
// The request slot is read late: regular behaviors and the handler re-read it
// each time they fire, so a replacement performed by a context behavior is
// visible to every stage that fires after it.
type PipelineContext struct {
	request any
	meta    map[any]any
}

func newPipelineContext(request any) *PipelineContext {
	return &PipelineContext{request: request}
}

// Request returns the current request value.
func (pc *PipelineContext) Request() any { return pc.request }

// SetRequest replaces the request for all stages that fire after the caller.
// The replacement must keep the handler's concrete request type; otherwise
// the terminal stage fails with a TypeMismatchError.
func (pc *PipelineContext) SetRequest(req any) { pc.request = req }

// Key is a typed metadata token. Two keys are equal when created with the
// same type parameter and name, and a later SetMeta on an equal key
// overwrites the earlier value.
type Key[V any] struct {
	name string
}

// NewKey creates a typed metadata key.
func NewKey[V any](name string) Key[V] { return Key[V]{name: name} }

// SetMeta stores v in the pipeline context under k.
func SetMeta[V any](pc *PipelineContext, k Key[V], v V) {
	if pc.meta == nil {
		pc.meta = make(map[any]any)
	}
	pc.meta[k] = v
}

// GetMeta returns the value stored under k, if any.
func GetMeta[V any](pc *PipelineContext, k Key[V]) (V, bool) {
	if pc.meta == nil {
		var zero V
		return zero, false
	}
	v, ok := pc.meta[k]
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// PipelineFunc is the type-erased form of a behavior as stored in a registry
// and composed by the mediator. Both regular and context behaviors erase to
// this shape; the typed adapters decide what the wrapped behavior sees.
type PipelineFunc func(ctx context.Context, pc *PipelineContext, next Next[any]) (any, error)

// buildPipeline composes the terminal stage with regular behaviors, then
// context behaviors, innermost first. Registration order governs nesting:
// the first-registered stage is outermost.
func buildPipeline(pc *PipelineContext, terminal Next[any], behaviors, contextBehaviors []PipelineFunc) Next[any] {
	next := terminal
	for i := len(behaviors) - 1; i >= 0; i-- {
		stage, inner := behaviors[i], next
		next = func(ctx context.Context) (any, error) {
			return stage(ctx, pc, inner)
		}
	}
	for i := len(contextBehaviors) - 1; i >= 0; i-- {
		stage, inner := contextBehaviors[i], next
		next = func(ctx context.Context) (any, error) {
			return stage(ctx, pc, inner)
		}
	}
	return next
}

// narrow adapts an erased continuation to a typed one for a behavior's next.
func narrow[T any](next Next[any]) Next[T] {
	return func(ctx context.Context) (T, error) {
		out, err := next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		t, ok := out.(T)
		if !ok && out != nil {
			var zero T
			return zero, &TypeMismatchError{Got: reflect.TypeOf(out), Want: typeOf[T]()}
		}
		return t, nil
	}
}
