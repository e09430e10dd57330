// Package health tracks sampler health for the /health endpoint.
//
// A status is one of three states:
//   - healthy: samples flow from source to sink
//   - degraded: samples are being dropped or parked in the spill queue
//   - unhealthy: the sink is failing or the sampler has stopped
//
// Monitor holds the latest Status per sampler and aggregates them. Any
// unhealthy sampler makes the aggregate unhealthy; otherwise any degraded
// sampler makes it degraded.
//
//	monitor := health.NewMonitor()
//	monitor.Update("sensor", health.NewDegraded("sensor", "spill queue holding 12 samples"))
//	status := monitor.AggregateHealth("ringsampler")
//
// Messages built with FromError have URLs, paths, addresses and credentials
// masked before they are served.
package health
