package indexer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type codedError struct{ code int }

func (e codedError) Error() string  { return "rpc error" }
func (e codedError) ErrorCode() int { return e.code }

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return context.DeadlineExceeded
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %v after %d calls", err, calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	err := withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Fatalf("expected 3 calls ending in %v, got %v after %d", boom, err, calls)
	}
}

func TestWithRetryStopsOnPermanentRPCError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return codedError{code: -32602}
	})
	if err == nil || calls != 1 {
		t.Fatalf("invalid params should not be retried: %v after %d calls", err, calls)
	}

	calls = 0
	_ = withRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return codedError{code: -32000}
	})
	if calls != 3 {
		t.Fatalf("server errors should be retried, got %d calls", calls)
	}
}

func TestWithRetryStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, time.Millisecond, func(context.Context) error {
		calls++
		cancel()
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("cancelled context should stop retries: %v after %d calls", err, calls)
	}
}
