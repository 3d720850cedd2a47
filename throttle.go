package medino

import (
	"context"

	"golang.org/x/time/rate"
)

// NewThrottle returns a broad behavior that gates every request with
// response type T behind a shared token bucket. Register it with
// RegisterBehaviorForAll; all requests flowing through that registration
// share one limiter.
//
// The wait is cancellation-aware: a cancelled context surfaces as ctx.Err()
// without consuming a token.
//
// Example:
//
//	// at most 10 lookups/sec with bursts of 5
//	medino.RegisterBehaviorForAll(reg, medino.NewThrottle[*UserInfo](10, 5))
func NewThrottle[T any](limit rate.Limit, burst int) AnyBehavior[T] {
	return &throttle[T]{limiter: rate.NewLimiter(limit, burst)}
}

type throttle[T any] struct {
	limiter *rate.Limiter
}

func (b *throttle[T]) Handle(ctx context.Context, req any, next Next[T]) (T, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return next(ctx)
}
