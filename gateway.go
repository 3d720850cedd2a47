package medino

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by Gateway.Receive when the input is not valid JSON.
var ErrInvalidJSON = errors.New("medino: invalid JSON")

// BindingNotFoundError is returned by Gateway.Receive when no binding exists
// for the envelope's routing key.
type BindingNotFoundError struct {
	Key string
}

func (e *BindingNotFoundError) Error() string {
	return fmt.Sprintf("medino: no binding for key %q", e.Key)
}

// Gateway turns raw JSON envelopes into typed mediator dispatches. It reads
// a routing key and payload from configurable paths, decodes the payload into
// the bound message type, and dispatches through the mediator.
//
// The default envelope shape is:
//
//	{"type": "user/created", "payload": {"user_id": "u1", "email": "a@b.c"}}
//
// Usage:
//
//	g := medino.NewGateway(m)
//	medino.BindCommand[CreateUser](g, "user/create")
//	medino.BindRequest[LookupUser, *UserInfo](g, "user/lookup")
//	medino.BindNotification[UserCreated](g, "user/created")
//
//	resp, err := g.Receive(ctx, rawMessageBytes)
//
// Gateway is safe for concurrent use after configuration. Do not call Bind
// functions after calling Receive.
type Gateway struct {
	mediator    *Mediator
	keyPath     string
	payloadPath string
	bindings    map[string]binding
}

// binding decodes one payload shape and dispatches it. Request bindings
// return the marshaled response; command and notification bindings return nil.
type binding func(ctx context.Context, payload []byte) (json.RawMessage, error)

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithKeyPath overrides the gjson path of the routing key. Default "type".
func WithKeyPath(path string) GatewayOption {
	return func(g *Gateway) {
		g.keyPath = path
	}
}

// WithPayloadPath overrides the gjson path of the payload. Default "payload".
func WithPayloadPath(path string) GatewayOption {
	return func(g *Gateway) {
		g.payloadPath = path
	}
}

// NewGateway creates a Gateway dispatching through m.
func NewGateway(m *Mediator, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		mediator:    m,
		keyPath:     "type",
		payloadPath: "payload",
		bindings:    make(map[string]binding),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Receive parses the envelope, looks up the binding for its routing key, and
// dispatches the decoded payload. For request bindings the marshaled response
// is returned; otherwise the result is nil.
//
// A missing payload field dispatches the zero value of the bound type, so
// payload-less envelopes stay valid for marker messages.
func (g *Gateway) Receive(ctx context.Context, raw []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}

	key := gjson.GetBytes(raw, g.keyPath)
	if !key.Exists() || key.Type != gjson.String || key.String() == "" {
		return nil, fmt.Errorf("medino: missing routing key at %q", g.keyPath)
	}

	b, found := g.bindings[key.String()]
	if !found {
		return nil, &BindingNotFoundError{Key: key.String()}
	}

	payload := []byte("{}")
	if p := gjson.GetBytes(raw, g.payloadPath); p.Exists() {
		payload = []byte(p.Raw)
	}
	return b(ctx, payload)
}

// BindCommand maps a routing key to command type C. Received payloads are
// unmarshaled into C and dispatched with Mediator.Dispatch.
func BindCommand[C any](g *Gateway, key string) {
	g.bindings[key] = func(ctx context.Context, payload []byte) (json.RawMessage, error) {
		var cmd C
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return nil, fmt.Errorf("medino: unmarshal %s payload: %w", key, err)
		}
		return nil, g.mediator.Dispatch(ctx, cmd)
	}
}

// BindRequest maps a routing key to request type R with response T. The
// response is marshaled and returned from Receive.
func BindRequest[R, T any](g *Gateway, key string) {
	g.bindings[key] = func(ctx context.Context, payload []byte) (json.RawMessage, error) {
		var req R
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("medino: unmarshal %s payload: %w", key, err)
		}
		resp, err := Send[T](ctx, g.mediator, req)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("medino: marshal %s response: %w", key, err)
		}
		return out, nil
	}
}

// BindNotification maps a routing key to notification type N, published with
// Mediator.Publish.
func BindNotification[N any](g *Gateway, key string) {
	g.bindings[key] = func(ctx context.Context, payload []byte) (json.RawMessage, error) {
		var note N
		if err := json.Unmarshal(payload, &note); err != nil {
			return nil, fmt.Errorf("medino: unmarshal %s payload: %w", key, err)
		}
		return nil, g.mediator.Publish(ctx, note)
	}
}
