// Package retry provides an exponential-backoff retry policy for
// collaborator calls that may fail transiently.
package retry

import (
	"context"
	"math"
	"strings"
	"time"
)

// Policy controls how failed calls are retried with exponential backoff.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy returns a Policy with 3 attempts, 200ms initial delay,
// 2x multiplier and a 2s cap.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     2 * time.Second,
	}
}

// ShouldRetry returns true if the error is retryable and the attempt count
// has not exceeded MaxAttempts.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if attempt > p.MaxAttempts {
		return false
	}
	return p.isRetryable(err)
}

// isRetryable classifies errors by message. Locking and I/O errors are
// retryable; constraint and validation errors are not. Unknown errors
// default to retryable.
func (p *Policy) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") {
		return true
	}

	if strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "constraint") ||
		strings.Contains(msg, "permission denied") {
		return false
	}

	return true
}

// NextDelay returns the backoff delay for the given attempt number
// (1-indexed): InitialDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p *Policy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Execute runs fn up to MaxAttempts times, waiting between attempts.
// It returns nil on success, the last error once attempts are exhausted
// or the error is permanent, or ctx.Err() if ctx ends while waiting.
func (p *Policy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.ShouldRetry(err, attempt) {
			return err
		}
		if attempt < p.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.NextDelay(attempt)):
			}
		}
	}
	return lastErr
}
