package provider

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/registry"
)

// RetryPolicy bounds how transient provider failures are retried before
// being escalated to fatal.
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the initial call.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps any single delay.
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor per attempt.
	Multiplier float64
	// Jitter randomizes each delay by a factor in [0.5, 1.5).
	Jitter bool
	// AttemptTimeout bounds each individual Send. A hung call is cut
	// off at this deadline and retried as transient instead of eating
	// the whole session budget. Zero disables the per-attempt bound.
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the policy used in production: three
// retries, 500ms base, doubling, capped at 10s, 60s per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
		AttemptTimeout: 60 * time.Second,
	}
}

// Delay computes the backoff for attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		d *= 0.5 + rand.Float64()
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// SendWithRetry calls p.Send, retrying transient failures per the policy.
// Once retries are exhausted the last transient error is escalated to a
// fatal one. Fatal errors are returned immediately.
func SendWithRetry(ctx context.Context, p Provider, pol RetryPolicy, system string, history []Message, ops []registry.Schema) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := pol.Delay(attempt - 1)
			log.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("retrying provider call")
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, Fatal("send", ctx.Err())
			case <-timer.C:
			}
		}

		attemptCtx := ctx
		cancel := func() {}
		if pol.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, pol.AttemptTimeout)
		}
		resp, err := p.Send(attemptCtx, system, history, ops)
		cancel()
		if err == nil {
			return resp, nil
		}
		// An attempt cut off by its own deadline is transient as long
		// as the caller's context is still live.
		if ctx.Err() == nil && attemptCtx.Err() == context.DeadlineExceeded {
			err = Transient("send", fmt.Errorf("attempt timed out after %s: %w", pol.AttemptTimeout, err))
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, Fatal("send", fmt.Errorf("retries exhausted after %d attempts: %w", pol.MaxRetries+1, lastErr))
}
