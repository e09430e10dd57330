package buffer

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/c360/ringbuf/metric"
)

// Option configures ring behavior using the functional options pattern.
type Option func(*ringOptions)

// ringOptions holds internal configuration for ring instances.
// Stats are always collected and are not an option.
type ringOptions struct {
	name string

	// metricsReg is optional - if provided, ring stats are also exposed as Prometheus metrics
	metricsReg metric.MetricsRegistrar

	// maxStorageBytes caps the storage allocated at construction; 0 means no cap
	maxStorageBytes uint64

	// releaseSlots zeroes slots on Read and Clear so stale records can be collected
	releaseSlots bool

	logger *slog.Logger
}

// WithName sets the instance name used in logs and as the metrics label.
// Defaults to "ring-" followed by a random UUID.
func WithName(name string) Option {
	return func(opts *ringOptions) {
		if name != "" {
			opts.name = name
		}
	}
}

// WithMetrics enables Prometheus metrics export for ring statistics, labelled with
// name (which also becomes the ring's name). A nil registry disables the option.
func WithMetrics(registry metric.MetricsRegistrar, name string) Option {
	return func(opts *ringOptions) {
		if registry == nil {
			return
		}
		opts.metricsReg = registry
		if name != "" {
			opts.name = name
		}
	}
}

// WithMaxStorageBytes fails construction with ErrAllocationFailure when the storage
// would exceed n bytes. Zero removes the limit.
func WithMaxStorageBytes(n uint64) Option {
	return func(opts *ringOptions) {
		opts.maxStorageBytes = n
	}
}

// WithReleaseSlots makes Read zero the slot it consumed and Clear zero every slot.
// Use it when records hold pointers that should not outlive their stay in the ring.
// Clear becomes O(capacity) with this option.
func WithReleaseSlots() Option {
	return func(opts *ringOptions) {
		opts.releaseSlots = true
	}
}

// WithLogger sets the logger for lifecycle events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(opts *ringOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

func applyOptions(options ...Option) *ringOptions {
	opts := &ringOptions{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	if opts.name == "" {
		opts.name = "ring-" + uuid.NewString()
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	return opts
}
