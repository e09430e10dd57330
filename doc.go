// Package ringbuf provides fixed-capacity ring buffers and a sampling stage
// built on them.
//
// # Philosophy: Bounded Memory, Explicit Backpressure
//
// A ring never grows. Writes to a full ring fail with ErrFull and reads from
// an empty ring fail with ErrEmpty, leaving the decision of what to drop to
// the caller. Storage is reserved once at construction, so the steady state
// of a producer and consumer does not allocate.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          cmd/ringsampler            │  Flags, logging, signals
//	└─────────────────────────────────────┘
//	           ↓ runs
//	┌─────────────────────────────────────┐
//	│             sampler                 │  Source → ring → sink,
//	│  (overflow policy, drain, retry)    │  spill queue, drain windows
//	└─────────────────────────────────────┘
//	           ↓ buffers in
//	┌─────────────────────────────────────┐
//	│           pkg/buffer                │  Ring[T], RecordRing,
//	│   (cursors, statistics, metrics)    │  Prometheus collectors
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core:
//   - pkg/buffer: Ring[T] for typed values and RecordRing for fixed-size
//     byte records, both with capacity+1 slots and FIFO order
//   - pkg/retry: Exponential backoff used by the sink path
//   - errors: Classified errors (transient, invalid, fatal) and ring sentinels
//
// Infrastructure:
//   - config: Layered YAML/JSON configuration with environment overrides
//   - metric: Prometheus registry and HTTP exposition, including /health
//   - health: Component status and the monitor behind /health
//   - sampler: Periodic sampling pipeline that exercises a RecordRing
//
// # Usage Patterns
//
// Typed ring:
//
//	r, err := buffer.New[int](3)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	_ = r.Write(1)
//	v, err := r.Pop()
//
// Record ring observed through Prometheus:
//
//	registry := metric.NewMetricsRegistry()
//	rr, err := buffer.NewRecordRing(24, 1024,
//	    buffer.WithName("sensor"),
//	    buffer.WithMetrics(registry, "sensor"))
//
// # Concurrency
//
// A ring is safe for one producer and one consumer at a time. Statistics may
// be read from any goroutine. Clear and Close must not race with Write or
// Read; the sampler serializes all ring access in its Run loop.
//
// # Binary
//
// The ringsampler binary samples a sine source into a RecordRing and drains
// it as JSON lines:
//
//	ringsampler --config=configs/ringsampler.yaml
//
// # Version
//
// Current version: 0.1.0
package ringbuf
