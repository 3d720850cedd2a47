// Package medino provides an in-process mediator: typed commands, requests,
// and notifications dispatched to registered handlers through a composable
// behavior pipeline.
//
// The package routes three message shapes: commands (fire-and-forget, one
// handler), requests (one handler, typed response), and notifications
// (zero or more handlers, fan-out). Cross-cutting concerns — validation,
// throttling, caching, error translation — wrap request execution as ordered
// pipeline behaviors, letting handlers stay pure business logic.
//
// # Quick Start
//
// Define a request and its handler:
//
//	type GetNumber struct {
//	    Number int `json:"number"`
//	}
//
//	type GetNumberHandler struct{}
//
//	func (GetNumberHandler) Handle(ctx context.Context, req GetNumber) (int, error) {
//	    return req.Number, nil
//	}
//
// Register it, create a mediator, and send:
//
//	reg := medino.NewRegistry()
//	medino.RegisterRequest(reg, GetNumberHandler{})
//
//	m := medino.New(reg)
//
//	n, err := medino.Send[int](ctx, m, GetNumber{Number: 42})
//
// # Design Philosophy
//
// The package separates concerns into three layers:
//
//   - Registry: maps message types to type-erased handler invokers
//   - Mediator: locates handlers, composes pipelines, orchestrates dispatch
//   - Handlers and behaviors: typed business logic and cross-cutting wrappers
//
// The mediator is constructed from a single Resolver and holds nothing else.
// Registry is the in-package Resolver; a dependency-injection container can
// implement the same two methods and take its place. There is deliberately no
// package-level default mediator: construct one and pass it where needed.
//
// # Messages and Handlers
//
// A message's identity is its concrete Go type. Commands and requests expect
// exactly one handler; dispatching without one fails with a
// HandlerNotFoundError. Notifications accept any number of handlers,
// including none.
//
//	medino.RegisterCommand(reg, &CreateUserHandler{users})
//	medino.RegisterRequest(reg, &LookupUserHandler{client})
//	medino.RegisterNotification(reg, &SendWelcomeEmail{mailer})
//
// Func adapters cover simple cases without a struct:
//
//	medino.RegisterCommandFunc(reg, func(ctx context.Context, cmd Ping) error {
//	    return nil
//	})
//
// # Pipeline
//
// Requests run through a pipeline assembled per dispatch:
//
//	context behaviors -> regular behaviors -> handler
//
// Both groups nest in registration order: the first registered behavior is
// outermost. With a context behavior C, behaviors B1 and B2, and handler H,
// the observed order is C, B1, B2, H, then unwinding B2, B1, C. A behavior
// that doesn't call next short-circuits everything nested inside it.
//
// Regular behaviors see the request value; the broad AnyBehavior binding sees
// it as an opaque value and applies to every request with its response type.
// Context behaviors see the PipelineContext instead and may replace the
// request:
//
//	func (uppercase) Handle(ctx context.Context, pc *medino.PipelineContext, next medino.Next[string]) (string, error) {
//	    req := pc.Request().(Echo)
//	    req.Text = strings.ToUpper(req.Text)
//	    pc.SetRequest(req)
//	    return next(ctx)
//	}
//
// Every stage that fires after the replacement — later behaviors and the
// handler — observes the replaced value, because stages re-read the context's
// current request when they fire rather than capturing it at build time.
//
// The PipelineContext also carries typed metadata. Keys are typed tokens, so
// reads need no unchecked casts:
//
//	var tenantKey = medino.NewKey[string]("tenant")
//
//	medino.SetMeta(pc, tenantKey, "acme")
//	tenant, ok := medino.GetMeta(pc, tenantKey)
//
// # Failure Resolution
//
// When a request pipeline fails, two hook phases run before the error reaches
// the caller:
//
//  1. Error handlers may recover: the first one (in registration order) that
//     calls Recover supplies a fallback response and the dispatch succeeds.
//  2. Error actions may observe or translate: the first one returning a
//     non-nil error replaces the outgoing error and skips the rest.
//
// Handlers change the outcome; actions change or report the failure. Both are
// filtered by error type through errors.As, so a handler registered for
// *StoreError also matches wrapped store errors.
//
//	medino.RegisterErrorHandlerFunc[LookupUser, *UserInfo](reg,
//	    func(ctx context.Context, req LookupUser, err *StoreError, rec *medino.Recovery) error {
//	        rec.Recover(&UserInfo{Guest: true})
//	        return nil
//	    })
//
// Cancellation is not a business failure: a context cancellation bypasses
// both phases and surfaces as ctx.Err(), distinguishable from handler errors
// with errors.Is.
//
// # Notifications
//
// Publish runs all handlers for the notification type concurrently and waits
// for every one of them. Handlers keep running when a sibling fails; the
// first error collected is the one returned. Ordering between notification
// handlers is not guaranteed.
//
// # Gateway
//
// Gateway bridges raw JSON envelopes to typed dispatches for callers that sit
// behind a queue or webhook:
//
//	g := medino.NewGateway(m)
//	medino.BindRequest[LookupUser, *UserInfo](g, "user/lookup")
//
//	resp, err := g.Receive(ctx, []byte(`{"type": "user/lookup", "payload": {"user_id": "u1"}}`))
//
// The routing key and payload paths are configurable with WithKeyPath and
// WithPayloadPath.
//
// # Built-in Behaviors
//
//   - NewValidation: validates requests via the Validatable interface or
//     struct tags before the pipeline proceeds
//   - NewThrottle: token-bucket rate limiting, cancellation-aware
//   - NewCorrelation: stamps a correlation ID into pipeline metadata
//
// # Hooks
//
// Hooks provide observability without coupling to a logging or metrics
// system. Configure them as options on New:
//
//	m := medino.New(reg,
//	    medino.WithOnSuccess(func(ctx context.Context, kind medino.MessageKind, message string, d time.Duration) {
//	        metrics.Timing("mediator.success", d, "message:"+message)
//	    }),
//	    medino.WithOnFailure(func(ctx context.Context, kind medino.MessageKind, message string, err error, d time.Duration) {
//	        metrics.Incr("mediator.failure", "message:"+message)
//	    }),
//	)
//
// Multiple hooks of the same type are called in order.
//
// # Thread Safety
//
// Registry and Gateway are safe for concurrent use after configuration is
// complete. Do not register handlers, behaviors, or bindings after the first
// dispatch. The PipelineContext and Recovery state are owned by a single
// in-flight call and never shared across dispatches.
package medino
