package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

const maxRetryDelay = 30 * time.Second

// JSON-RPC codes that a retry cannot fix.
var permanentRPCCodes = map[int]struct{}{
	-32600: {}, // invalid request
	-32601: {}, // method not found
	-32602: {}, // invalid params, e.g. a block range the node refuses
}

// withRetry calls fn until it succeeds, the attempts run out, ctx ends or fn
// fails with a permanent error. The delay doubles per attempt up to maxRetryDelay.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(ctx, err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(delay*2, maxRetryDelay)
	}
}

// retryable treats per-call timeouts as transient, but not the end of ctx
// itself or JSON-RPC errors the node will keep returning.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		_, permanent := permanentRPCCodes[rpcErr.ErrorCode()]
		return !permanent
	}
	return true
}
