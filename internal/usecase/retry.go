package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
)

const (
	defaultRetryAttempts = 2
	defaultRetryDelay    = 500 * time.Millisecond
)

// RetryPolicy bounds attempts on transient outcomes with a fixed pause between them.
// The pause blocks only the calling worker.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: defaultRetryAttempts, Delay: defaultRetryDelay}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Retry runs fn until it yields a non-retryable outcome or the policy is exhausted.
// It returns the last value and outcome plus the number of attempts made. A context
// cancelled during the pause ends the loop with a transient outcome.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn func(ctx context.Context, attempt int) (T, seasonstats.Outcome),
) (T, seasonstats.Outcome, int) {
	maxAttempts := policy.attempts()

	var (
		value   T
		outcome seasonstats.Outcome
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, outcome = fn(ctx, attempt)
		if !outcome.Kind.Retryable() || attempt == maxAttempts {
			return value, outcome, attempt
		}

		if policy.Delay <= 0 {
			if err := ctx.Err(); err != nil {
				return value, seasonstats.Fail(seasonstats.OutcomeTransientError, crerr.Wrap(err, "retry aborted")), attempt
			}
			continue
		}

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return value, seasonstats.Fail(seasonstats.OutcomeTransientError, crerr.Wrap(ctx.Err(), "retry aborted")), attempt
		case <-timer.C:
		}
	}

	return value, outcome, maxAttempts
}
