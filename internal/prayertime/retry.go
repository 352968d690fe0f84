package prayertime

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/rs/zerolog/log"
)

// ComputeDelay returns base * 2^attempt for a 0-based attempt.
func ComputeDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 20 {
		attempt = 20
	}
	return base * time.Duration(1<<attempt)
}

// RetryPolicy retries a single upstream call with exponential backoff.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Clock      clock.Clock
}

// Do calls fn until it succeeds, fails with a non-retryable category, the
// context ends, or MaxRetries retries have been spent. The returned error is
// the last one fn produced.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	clk := p.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	base := p.BaseDelay
	if base <= 0 {
		// retry.Call rejects a zero delay
		base = time.Millisecond
	}
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			lastErr = fn(ctx)
			return lastErr
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil || !IsRetryable(Categorize(err))
		},
		NotifyFunc: func(err error, attempt int) {
			log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("upstream call failed, retrying")
		},
		Attempts: attempts,
		Delay:    base,
		BackoffFunc: func(_ time.Duration, attempt int) time.Duration {
			return backoff(base, lastErr, attempt-1)
		},
		Clock: clk,
		Stop:  ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	if lastErr == nil {
		return err
	}
	return lastErr
}

func backoff(base time.Duration, lastErr error, attempt int) time.Duration {
	d := ComputeDelay(base, attempt)
	if Categorize(lastErr) == ErrRateLimit {
		if rl := RetryDelay(ErrRateLimit, attempt); rl > d {
			d = rl
		}
	}
	return d
}
