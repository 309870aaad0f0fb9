package search

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryTransientErrorRetried(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryNonTransientErrorNotRetried(t *testing.T) {
	calls := 0
	definitive := errors.New("invalid api key")
	err := RetryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		return definitive
	})
	if !errors.Is(err, definitive) {
		t.Fatalf("expected the definitive error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastRetry(3), func() error {
		calls++
		return errors.New("http 503: unavailable")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   1,
	}, func() error {
		calls++
		cancel()
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestIsTransientError(t *testing.T) {
	transient := []error{
		errors.New("request timeout"),
		errors.New("connection refused"),
		errors.New("http 502: bad gateway"),
		context.DeadlineExceeded,
	}
	for _, err := range transient {
		if !isTransientError(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}

	definitive := []error{
		nil,
		context.Canceled,
		errors.New("invalid api key"),
		errors.New("http 404: not found"),
	}
	for _, err := range definitive {
		if isTransientError(err) {
			t.Errorf("expected %v to be definitive", err)
		}
	}
}

func TestBlockDurationCapped(t *testing.T) {
	if got := blockDuration(providerFailureThreshold); got != providerBlockBase {
		t.Fatalf("expected base block at threshold, got %v", got)
	}
	if got := blockDuration(providerFailureThreshold + 10); got != providerBlockMax {
		t.Fatalf("expected block capped at %v, got %v", providerBlockMax, got)
	}
}
