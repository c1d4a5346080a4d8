package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) *Policy {
	return &Policy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		Multiplier:   1.0,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestPolicyDelays(t *testing.T) {
	policy := DefaultPolicy()

	if !policy.ShouldRetry(errors.New("database is locked"), 1) {
		t.Error("expected locked database to be retryable")
	}
	if policy.ShouldRetry(errors.New("error"), 4) {
		t.Error("should not retry after max attempts")
	}

	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	for i, w := range want {
		if got := policy.NextDelay(i + 1); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
	if got := policy.NextDelay(10); got != policy.MaxDelay {
		t.Errorf("expected delay capped at %v, got %v", policy.MaxDelay, got)
	}
}

func TestPolicyNonRetryable(t *testing.T) {
	policy := DefaultPolicy()
	for _, msg := range []string{"invalid summary", "UNIQUE constraint failed", "open history.db: permission denied"} {
		if policy.ShouldRetry(errors.New(msg), 1) {
			t.Errorf("expected %q to be non-retryable", msg)
		}
	}
	if policy.ShouldRetry(nil, 1) {
		t.Error("nil error should not be retryable")
	}
}

func TestExecuteSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary failure")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Execute(context.Background(), func() error {
		calls++
		return errors.New("invalid request")
	})
	if err == nil {
		t.Error("expected error for non-retryable failure")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestExecuteAllFail(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Execute(context.Background(), func() error {
		calls++
		return errors.New("timeout")
	})
	if err == nil {
		t.Error("expected error after all attempts exhausted")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestExecuteHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := &Policy{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 1, MaxDelay: time.Hour}
	err := policy.Execute(ctx, func() error { return errors.New("busy") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
