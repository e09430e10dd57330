// Package config loads and validates the ringsampler configuration.
//
// A configuration is built in layers: Default() first, then each file added
// with AddLayer, then RINGSAMPLER_* environment variables. Files ending in
// .json are parsed as JSON; .yaml and .yml files as YAML. A layer only
// overrides the keys it names, so a file may set a single field.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/ringsampler.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//
// # File Format
//
//	version: "1.0.0"
//	buffer:
//	  capacity: 1024
//	  max_storage_bytes: 0
//	  release_slots: false
//	sampler:
//	  sample_interval: 10ms
//	  drain_interval: 250ms
//	  batch_size: 128
//	  overflow_policy: spill
//	  spill_limit: 4096
//	sink:
//	  path: ""
//	  retry: {max_attempts: 3, initial_delay: 50ms, max_delay: 1s, multiplier: 2.0}
//	metrics:
//	  enabled: true
//	  port: 9090
//	  path: /metrics
//
// Durations accept Go duration strings ("250ms") or integer nanoseconds.
//
// # Environment Variable Overrides
//
//	RINGSAMPLER_BUFFER_CAPACITY
//	RINGSAMPLER_SAMPLER_BATCH_SIZE
//	RINGSAMPLER_SAMPLER_OVERFLOW_POLICY
//	RINGSAMPLER_SINK_PATH
//	RINGSAMPLER_METRICS_ENABLED
//	RINGSAMPLER_METRICS_PORT
//
// # Errors
//
// Validation failures wrap errors.ErrInvalidConfig and are classified invalid.
// A missing file wraps errors.ErrConfigNotFound and is classified fatal.
package config
