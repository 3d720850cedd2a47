package medino

import (
	"context"

	"github.com/google/uuid"
)

// CorrelationKey is the metadata key under which the correlation behavior
// stores the dispatch's correlation ID. Behaviors and error hooks further
// down the pipeline read it with GetMeta.
var CorrelationKey = NewKey[string]("correlation-id")

// NewCorrelation returns a context behavior that stamps a UUID correlation
// ID into the pipeline metadata when none is present yet. Register it with
// RegisterContextBehaviorForAll so every request with response type T gets
// one.
func NewCorrelation[T any]() ContextBehavior[T] {
	return correlate[T]{}
}

type correlate[T any] struct{}

func (correlate[T]) Handle(ctx context.Context, pc *PipelineContext, next Next[T]) (T, error) {
	if _, ok := GetMeta(pc, CorrelationKey); !ok {
		SetMeta(pc, CorrelationKey, uuid.NewString())
	}
	return next(ctx)
}
