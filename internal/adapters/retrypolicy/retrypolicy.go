package retrypolicy

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// None runs the operation exactly once. This is the default policy: an
// update run aborts on the first upstream failure and an operator
// re-invokes the job, which is safe because writes overwrite by date.
type None struct{}

func (None) Do(ctx context.Context, op func(ctx context.Context) error) error {
	return op(ctx)
}

// Fibonacci retries a failed operation with Fibonacci backoff up to
// MaxRetries additional attempts. Every error is treated as retryable;
// the provider has no documented distinction between transient and
// permanent failures.
type Fibonacci struct {
	Base       time.Duration
	MaxRetries uint64
}

func (p Fibonacci) Do(ctx context.Context, op func(ctx context.Context) error) error {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	backoff := retry.WithMaxRetries(p.MaxRetries, retry.NewFibonacci(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
