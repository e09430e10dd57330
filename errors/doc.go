// Package errors provides standardized error handling for ring buffers and the tooling around them.
//
// # Overview
//
// Errors fall into three classes: Transient (the condition clears on its own, try again
// later), Invalid (bad input, retrying the same call cannot help), and Fatal (a programming
// mistake or an unrecoverable resource failure).
//
// # Ring Buffer Conditions
//
// The buffer package reports its outcomes through sentinel errors defined here:
//
//   - ErrFull: Write against a ring at capacity. Transient, nothing was mutated.
//   - ErrEmpty: Read against a ring holding no records. Transient, nothing was mutated.
//   - ErrOutOfRange: Peek outside [0, Size()). Invalid.
//   - ErrRecordSize: a byte record of the wrong length. Invalid.
//   - ErrInvalidCapacity: a negative capacity at construction. Invalid.
//   - ErrAllocationFailure: storage could not be obtained or its size overflowed. Fatal.
//   - ErrInvalidHandle: an operation on a nil or closed ring. Fatal.
//
// Write, Read and Peek return ErrFull, ErrEmpty and ErrOutOfRange bare so the steady state
// path stays allocation-free:
//
//	if err := ring.Write(rec); errors.Is(err, errors.ErrFull) {
//	    // back-pressure: drop, evict or park the record
//	}
//
// # Error Wrapping Pattern
//
// Everything else is wrapped with the standardized format:
//
//	"component.method: action failed: %w"
//
//	errors.WrapTransient(err, "Component", "Method", "action")  // For retryable errors
//	errors.WrapInvalid(err, "Component", "Method", "action")    // For validation errors
//	errors.WrapFatal(err, "Component", "Method", "action")      // For unrecoverable errors
//
// Wrapped errors still satisfy errors.Is against the sentinel they carry, and
// errors.As(err, &*ClassifiedError) exposes the component and operation.
//
// # Retry Configuration
//
// RetryConfig describes caller-side retries (a ring never retries internally) and converts
// to the retry package's Config:
//
//	cfg := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, cfg.ToRetryConfig(), func() error {
//	    return sink.Write(ctx, batch)
//	})
package errors
