package medino

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validatable is the interface for message self-validation.
// Compatible with github.com/go-ozzo/ozzo-validation/v4.
type Validatable interface {
	Validate() error
}

// NewValidation returns a broad behavior that validates every request with
// response type T before the rest of the pipeline runs. Register it with
// RegisterBehaviorForAll.
//
// Requests implementing Validatable are validated through it; other struct
// requests are validated by their `validate` tags. Failures short-circuit
// the pipeline with a ValidationError.
//
// Example:
//
//	medino.RegisterBehaviorForAll(reg, medino.NewValidation[*UserInfo]())
func NewValidation[T any]() AnyBehavior[T] {
	return &validation[T]{v: validator.New(validator.WithRequiredStructEnabled())}
}

type validation[T any] struct {
	v *validator.Validate
}

func (b *validation[T]) Handle(ctx context.Context, req any, next Next[T]) (T, error) {
	if err := b.check(ctx, req); err != nil {
		var zero T
		return zero, &ValidationError{Err: err}
	}
	return next(ctx)
}

func (b *validation[T]) check(ctx context.Context, req any) error {
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	t := reflect.TypeOf(req)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return b.v.StructCtx(ctx, req)
}
