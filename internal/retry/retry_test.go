package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var errFlaky = errors.New("flaky")

func TestDo_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 1, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls == 1 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 1}, func(context.Context) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_NotRetryable(t *testing.T) {
	calls := 0
	p := Policy{Retries: 3, Retryable: func(err error) bool { return !errors.Is(err, errFlaky) }}
	_ = Do(context.Background(), p, func(context.Context) error {
		calls++
		return errFlaky
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	err := Do(context.Background(), Policy{Timeout: 10 * time.Millisecond}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestDo_CanceledParentStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Retries: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errFlaky
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ZeroRetriesCallsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Retries: 0, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackOff_Bounds(t *testing.T) {
	p := Policy{Retries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 150 * time.Millisecond}
	for range 50 {
		b := p.backOff(context.Background())
		if d := b.NextBackOff(); d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("first delay out of range: %v", d)
		}
		_ = b.NextBackOff()
		if d := b.NextBackOff(); d < 75*time.Millisecond || d > 225*time.Millisecond {
			t.Fatalf("capped delay out of range: %v", d)
		}
	}
}

func TestBackOff_StopsAfterRetries(t *testing.T) {
	b := Policy{Retries: 2}.backOff(context.Background())
	for i := range 2 {
		if d := b.NextBackOff(); d != 0 {
			t.Fatalf("retry %d: expected zero delay, got %v", i, d)
		}
	}
	if d := b.NextBackOff(); d != backoff.Stop {
		t.Errorf("expected Stop after retries, got %v", d)
	}
}
