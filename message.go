package medino

import (
	"context"
)

// CommandHandler processes a command without returning a result.
// Exactly one handler is expected per command type; Dispatch fails with
// HandlerNotFoundError when none is registered.
//
// Example:
//
//	type CreateUserHandler struct {
//	    users UserStore
//	}
//
//	func (h *CreateUserHandler) Handle(ctx context.Context, cmd CreateUser) error {
//	    return h.users.Insert(ctx, cmd.Name)
//	}
type CommandHandler[C any] interface {
	Handle(ctx context.Context, cmd C) error
}

// CommandHandlerFunc is a function adapter for CommandHandler. Use for simple
// handlers that don't need a struct:
//
//	medino.RegisterCommandFunc(reg, func(ctx context.Context, cmd Ping) error {
//	    return nil
//	})
type CommandHandlerFunc[C any] func(ctx context.Context, cmd C) error

// Handle implements the CommandHandler interface.
func (f CommandHandlerFunc[C]) Handle(ctx context.Context, cmd C) error {
	return f(ctx, cmd)
}

// RequestHandler processes a request and returns a typed response.
// Exactly one handler is expected per (request, response) type pair.
//
// The type parameters are: R for the request, T for the response.
//
// Example:
//
//	type LookupUserHandler struct {
//	    client IdentityClient
//	}
//
//	func (h *LookupUserHandler) Handle(ctx context.Context, req LookupUser) (*UserInfo, error) {
//	    return h.client.GetUser(ctx, req.UserID)
//	}
type RequestHandler[R, T any] interface {
	Handle(ctx context.Context, req R) (T, error)
}

// RequestHandlerFunc is a function adapter for RequestHandler.
type RequestHandlerFunc[R, T any] func(ctx context.Context, req R) (T, error)

// Handle implements the RequestHandler interface.
func (f RequestHandlerFunc[R, T]) Handle(ctx context.Context, req R) (T, error) {
	return f(ctx, req)
}

// NotificationHandler reacts to a published event. Any number of handlers may
// be registered for a notification type, including none.
type NotificationHandler[N any] interface {
	Handle(ctx context.Context, note N) error
}

// NotificationHandlerFunc is a function adapter for NotificationHandler.
type NotificationHandlerFunc[N any] func(ctx context.Context, note N) error

// Handle implements the NotificationHandler interface.
func (f NotificationHandlerFunc[N]) Handle(ctx context.Context, note N) error {
	return f(ctx, note)
}

// MessageKind identifies which dispatch surface a message went through.
// Hooks receive it so one hook can serve all three operations.
type MessageKind string

const (
	KindCommand      MessageKind = "command"
	KindRequest      MessageKind = "request"
	KindNotification MessageKind = "notification"
)
