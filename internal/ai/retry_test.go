package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryer() Retryer {
	return Retryer{
		Provider: "test",
		Options: RetryOptions{
			MaxRetries: 3,
			RetryDelay: time.Millisecond,
			Timeout:    time.Second,
		},
	}
}

func TestRetryerFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	err := fastRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryerRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := fastRetryer().Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryerExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := fastRetryer().Do(context.Background(), "generateQuestions", func(ctx context.Context) error {
		calls++
		return boom
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error %T, want *ProviderError", err)
	}
	if provErr.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", provErr.Attempts)
	}
	if provErr.Operation != "generateQuestions" {
		t.Fatalf("Operation = %q", provErr.Operation)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("wrapped error not preserved: %v", err)
	}
}

func TestRetryerAttemptTimeout(t *testing.T) {
	r := Retryer{
		Provider: "test",
		Options: RetryOptions{
			MaxRetries: 2,
			RetryDelay: time.Millisecond,
			Timeout:    10 * time.Millisecond,
		},
	}

	err := r.Do(context.Background(), "op", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error %T, want *ProviderError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestRetryerStopsOnParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	r := Retryer{
		Provider: "test",
		Options: RetryOptions{
			MaxRetries: 5,
			RetryDelay: 250 * time.Millisecond,
			Timeout:    time.Second,
		},
	}
	err := r.Do(ctx, "op", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
