package medino

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type echo struct {
	Text string
}

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, req echo) (string, error) {
	return req.Text, nil
}

// tracer records pipeline entry and exit for ordering assertions.
type tracer struct {
	name   string
	events *[]string
}

func (b tracer) Handle(ctx context.Context, req echo, next Next[string]) (string, error) {
	*b.events = append(*b.events, b.name+"-before")
	out, err := next(ctx)
	*b.events = append(*b.events, b.name+"-after")
	return out, err
}

type contextTracer struct {
	name   string
	events *[]string
}

func (b contextTracer) Handle(ctx context.Context, pc *PipelineContext, next Next[string]) (string, error) {
	*b.events = append(*b.events, b.name+"-before")
	out, err := next(ctx)
	*b.events = append(*b.events, b.name+"-after")
	return out, err
}

func TestPipeline_Order(t *testing.T) {
	var events []string

	reg := NewRegistry()
	RegisterRequestFunc(reg, func(ctx context.Context, req echo) (string, error) {
		events = append(events, "handler")
		return req.Text, nil
	})
	RegisterContextBehavior[echo](reg, contextTracer{name: "C", events: &events})
	RegisterBehavior(reg, tracer{name: "B1", events: &events})
	RegisterBehavior(reg, tracer{name: "B2", events: &events})

	m := New(reg)
	want := []string{"C-before", "B1-before", "B2-before", "handler", "B2-after", "B1-after", "C-after"}

	// The same request dispatched twice observes the identical order.
	for run := 0; run < 2; run++ {
		events = events[:0]
		out, err := Send[string](context.Background(), m, echo{Text: "hi"})
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if out != "hi" {
			t.Errorf("run %d: response = %q, want %q", run, out, "hi")
		}
		if len(events) != len(want) {
			t.Fatalf("run %d: events = %v, want %v", run, events, want)
		}
		for i := range want {
			if events[i] != want[i] {
				t.Errorf("run %d: events[%d] = %q, want %q", run, i, events[i], want[i])
			}
		}
	}
}

func TestPipeline_RequestReplacement(t *testing.T) {
	var sawInBehavior, sawInHandler string

	reg := NewRegistry()
	RegisterRequestFunc(reg, func(ctx context.Context, req echo) (string, error) {
		sawInHandler = req.Text
		return req.Text, nil
	})
	RegisterContextBehaviorForAll(reg, ContextBehaviorFunc[string](func(ctx context.Context, pc *PipelineContext, next Next[string]) (string, error) {
		req := pc.Request().(echo)
		req.Text = strings.ToUpper(req.Text)
		pc.SetRequest(req)
		return next(ctx)
	}))
	RegisterBehaviorFunc(reg, func(ctx context.Context, req echo, next Next[string]) (string, error) {
		sawInBehavior = req.Text
		return next(ctx)
	})

	m := New(reg)
	out, err := Send[string](context.Background(), m, echo{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawInBehavior != "HELLO" {
		t.Errorf("behavior saw %q, want replaced request", sawInBehavior)
	}
	if sawInHandler != "HELLO" {
		t.Errorf("handler saw %q, want replaced request", sawInHandler)
	}
	if out != "HELLO" {
		t.Errorf("response = %q, want %q", out, "HELLO")
	}
}

func TestPipeline_IncompatibleReplacement(t *testing.T) {
	reg := NewRegistry()
	RegisterRequest(reg, echoHandler{})
	RegisterContextBehaviorForAll(reg, ContextBehaviorFunc[string](func(ctx context.Context, pc *PipelineContext, next Next[string]) (string, error) {
		pc.SetRequest(42)
		return next(ctx)
	}))

	m := New(reg)
	_, err := Send[string](context.Background(), m, echo{Text: "hello"})
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want TypeMismatchError", err)
	}
}

func TestPipeline_ShortCircuit(t *testing.T) {
	handlerRan := false

	reg := NewRegistry()
	RegisterRequestFunc(reg, func(ctx context.Context, req echo) (string, error) {
		handlerRan = true
		return req.Text, nil
	})
	RegisterBehaviorFunc(reg, func(ctx context.Context, req echo, next Next[string]) (string, error) {
		return "cached", nil
	})

	m := New(reg)
	out, err := Send[string](context.Background(), m, echo{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "cached" {
		t.Errorf("response = %q, want short-circuit value", out)
	}
	if handlerRan {
		t.Error("handler ran despite short-circuit")
	}
}

func TestPipeline_BroadBehavior(t *testing.T) {
	var seen []any

	reg := NewRegistry()
	RegisterRequest(reg, echoHandler{})
	RegisterBehaviorForAll(reg, AnyBehaviorFunc[string](func(ctx context.Context, req any, next Next[string]) (string, error) {
		seen = append(seen, req)
		return next(ctx)
	}))

	m := New(reg)
	if _, err := Send[string](context.Background(), m, echo{Text: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("broad behavior fired %d times, want 1", len(seen))
	}
	if _, ok := seen[0].(echo); !ok {
		t.Errorf("broad behavior saw %T, want echo", seen[0])
	}

	// Response type gates the broad binding: an int request pipeline with a
	// string-typed broad behavior must not fire it.
	RegisterRequest(reg, getNumberHandler{})
	if _, err := Send[int](context.Background(), m, getNumber{Number: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("broad behavior fired for a different response type")
	}
}

func TestPipelineContext_Metadata(t *testing.T) {
	pc := newPipelineContext(echo{Text: "hi"})

	key := NewKey[string]("tenant")
	if _, ok := GetMeta(pc, key); ok {
		t.Error("unexpected value before SetMeta")
	}

	SetMeta(pc, key, "acme")
	SetMeta(pc, key, "globex") // last write wins

	got, ok := GetMeta(pc, key)
	if !ok || got != "globex" {
		t.Errorf("GetMeta = %q, %v; want globex, true", got, ok)
	}

	// Keys with the same name but different value types do not collide.
	intKey := NewKey[int]("tenant")
	if _, ok := GetMeta(pc, intKey); ok {
		t.Error("typed keys collided across value types")
	}
}
