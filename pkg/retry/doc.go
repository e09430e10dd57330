// Package retry provides exponential backoff retry logic for transient failures.
//
// Ring buffers never retry on their own: a full ring returns errors.ErrFull immediately and
// the caller owns the recovery policy. This package is what such callers reach for when the
// policy is "try again shortly", typically around a sink that drains the ring.
//
//   - Do: execute a function with retry and exponential backoff
//   - Backoff: the delay schedule on its own
//   - NonRetryable: mark an error so Do gives up immediately
//
// DefaultConfig() gives 3 attempts with 50ms-1s delays.
//
// Example, retrying a sink write but never a closed sink:
//
//	cfg := retry.DefaultConfig()
//	cfg.Retryable = errors.IsTransient
//	err := retry.Do(ctx, cfg, func() error {
//	    return sink.Write(ctx, batch)
//	})
package retry
