package medino_test

import (
	"context"
	"fmt"
	"strings"

	medino "github.com/brendankowitz/Medino"
)

// CreateUser is a fire-and-forget command.
type CreateUser struct {
	Name string `json:"name"`
}

// CreateUserHandler handles CreateUser commands.
type CreateUserHandler struct{}

func (CreateUserHandler) Handle(ctx context.Context, cmd CreateUser) error {
	fmt.Printf("created user %s\n", cmd.Name)
	return nil
}

// Greet is a request with a string response.
type Greet struct {
	Name string `json:"name"`
}

// GreetHandler handles Greet requests.
type GreetHandler struct{}

func (GreetHandler) Handle(ctx context.Context, req Greet) (string, error) {
	return "hello, " + req.Name, nil
}

func Example() {
	reg := medino.NewRegistry()
	medino.RegisterCommand(reg, CreateUserHandler{})
	medino.RegisterRequest(reg, GreetHandler{})

	m := medino.New(reg)

	if err := m.Dispatch(context.Background(), CreateUser{Name: "Ann"}); err != nil {
		fmt.Println("dispatch failed:", err)
	}

	greeting, err := medino.Send[string](context.Background(), m, Greet{Name: "Ann"})
	if err != nil {
		fmt.Println("send failed:", err)
	}
	fmt.Println(greeting)

	// Output:
	// created user Ann
	// hello, Ann
}

func Example_behaviors() {
	reg := medino.NewRegistry()
	medino.RegisterRequest(reg, GreetHandler{})

	// A context behavior may replace the request before the rest of the
	// pipeline sees it.
	medino.RegisterContextBehaviorForAll(reg, medino.ContextBehaviorFunc[string](
		func(ctx context.Context, pc *medino.PipelineContext, next medino.Next[string]) (string, error) {
			req := pc.Request().(Greet)
			req.Name = strings.ToUpper(req.Name)
			pc.SetRequest(req)
			return next(ctx)
		}))

	// A regular behavior wraps the handler call.
	medino.RegisterBehaviorFunc(reg, func(ctx context.Context, req Greet, next medino.Next[string]) (string, error) {
		out, err := next(ctx)
		if err != nil {
			return "", err
		}
		return out + "!", nil
	})

	m := medino.New(reg)
	greeting, _ := medino.Send[string](context.Background(), m, Greet{Name: "Ann"})
	fmt.Println(greeting)

	// Output:
	// hello, ANN!
}

func Example_recovery() {
	reg := medino.NewRegistry()
	medino.RegisterRequestFunc(reg, func(ctx context.Context, req Greet) (string, error) {
		return "", fmt.Errorf("greeter offline")
	})
	medino.RegisterErrorHandlerFunc[Greet, string](reg,
		func(ctx context.Context, req Greet, err error, rec *medino.Recovery) error {
			rec.Recover("hello, stranger")
			return nil
		})

	m := medino.New(reg)
	greeting, err := medino.Send[string](context.Background(), m, Greet{Name: "Ann"})
	fmt.Println(greeting, err)

	// Output:
	// hello, stranger <nil>
}

func ExampleGateway() {
	reg := medino.NewRegistry()
	medino.RegisterRequest(reg, GreetHandler{})

	m := medino.New(reg)
	g := medino.NewGateway(m)
	medino.BindRequest[Greet, string](g, "greet")

	out, err := g.Receive(context.Background(), []byte(`{"type": "greet", "payload": {"name": "Ann"}}`))
	if err != nil {
		fmt.Println("receive failed:", err)
	}
	fmt.Println(string(out))

	// Output:
	// "hello, Ann"
}
