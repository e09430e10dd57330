// Package metric provides Prometheus-based metrics collection and an HTTP server
// for ring buffer monitoring.
//
// The package offers a registry holding the sampler pipeline metrics (Metrics type)
// plus per-instance metrics registered by ring buffers through the MetricsRegistrar
// interface, and a Server exposing everything in Prometheus format.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry, logger)
//	if err := server.Start(); err != nil {
//	    return err
//	}
//	defer server.Stop(context.Background())
//
//	ring, err := buffer.New[Sample](1024, buffer.WithMetrics(registry, "ingest"))
//
// The server exposes metrics at /metrics (or the configured path) and a health check
// at /health.
//
// # Registration Keys
//
// Metrics are keyed by owner and metric name. Registering the same pair twice returns an
// invalid-class error; Unregister frees the pair so a ring with the same name can be
// created again after the first one is closed.
package metric
