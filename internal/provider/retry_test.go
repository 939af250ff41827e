package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storepilot/storepilot/internal/provider"
	"github.com/storepilot/storepilot/internal/registry"
)

// scriptedProvider returns pre-planned outcomes in order.
type scriptedProvider struct {
	outcomes []error
	calls    int
}

func (s *scriptedProvider) Send(_ context.Context, _ string, _ []provider.Message, _ []registry.Schema) (*provider.Response, error) {
	i := s.calls
	s.calls++
	if i >= len(s.outcomes) || s.outcomes[i] == nil {
		return &provider.Response{Text: "done"}, nil
	}
	return nil, s.outcomes[i]
}

func fastPolicy() provider.RetryPolicy {
	return provider.RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	p := &scriptedProvider{outcomes: []error{
		provider.Transient("send", errors.New("rate limit")),
		provider.Transient("send", errors.New("connection reset")),
		nil,
	}}
	resp, err := provider.SendWithRetry(context.Background(), p, fastPolicy(), "", nil, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Text != "done" {
		t.Errorf("text = %q", resp.Text)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestRetryFatalReturnsImmediately(t *testing.T) {
	fatal := provider.Fatal("send", errors.New("invalid api key"))
	p := &scriptedProvider{outcomes: []error{fatal}}
	_, err := provider.SendWithRetry(context.Background(), p, fastPolicy(), "", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Errorf("fatal error should not be retried, calls = %d", p.calls)
	}
	if provider.IsRetryable(err) {
		t.Error("fatal error reported as retryable")
	}
}

func TestRetryExhaustionEscalatesToFatal(t *testing.T) {
	transient := provider.Transient("send", errors.New("overloaded"))
	p := &scriptedProvider{outcomes: []error{transient, transient, transient, transient, transient}}
	_, err := provider.SendWithRetry(context.Background(), p, fastPolicy(), "", nil, nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if p.calls != 4 {
		t.Errorf("calls = %d, want 4 (1 initial + 3 retries)", p.calls)
	}
	if provider.IsRetryable(err) {
		t.Error("exhausted retries must escalate to fatal")
	}
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *provider.Error, got %T", err)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	transient := provider.Transient("send", errors.New("overloaded"))
	p := &scriptedProvider{outcomes: []error{transient, transient, transient, transient}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := provider.SendWithRetry(ctx, p, fastPolicy(), "", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

// hangingProvider blocks until its context is done for the first n
// calls, then succeeds.
type hangingProvider struct {
	hangs int
	calls int
}

func (h *hangingProvider) Send(ctx context.Context, _ string, _ []provider.Message, _ []registry.Schema) (*provider.Response, error) {
	h.calls++
	if h.calls <= h.hangs {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &provider.Response{Text: "done"}, nil
}

func TestAttemptTimeoutCutsOffHungCall(t *testing.T) {
	p := &hangingProvider{hangs: 2}
	pol := fastPolicy()
	pol.AttemptTimeout = 5 * time.Millisecond

	resp, err := provider.SendWithRetry(context.Background(), p, pol, "", nil, nil)
	if err != nil {
		t.Fatalf("expected success after hung attempts were retried, got %v", err)
	}
	if resp.Text != "done" {
		t.Errorf("text = %q", resp.Text)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3 (2 hung + 1 success)", p.calls)
	}
}

func TestAttemptTimeoutKeepsCallerCancellationFatal(t *testing.T) {
	p := &hangingProvider{hangs: 10}
	pol := fastPolicy()
	pol.AttemptTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := provider.SendWithRetry(ctx, p, pol, "", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if provider.IsRetryable(err) {
		t.Error("caller cancellation must not be retried")
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	pol := provider.RetryPolicy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}
	if d := pol.Delay(0); d != 100*time.Millisecond {
		t.Errorf("delay(0) = %v", d)
	}
	if d := pol.Delay(2); d != 400*time.Millisecond {
		t.Errorf("delay(2) = %v", d)
	}
	if d := pol.Delay(10); d != time.Second {
		t.Errorf("delay(10) = %v, want cap %v", d, time.Second)
	}
}

func TestDelayJitterStaysUnderCap(t *testing.T) {
	pol := provider.RetryPolicy{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
	for i := 0; i < 50; i++ {
		if d := pol.Delay(9); d > time.Second {
			t.Fatalf("jittered delay %v exceeds cap", d)
		}
	}
}
