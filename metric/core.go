package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the sampler pipeline metrics. Per-ring metrics are registered
// separately by each ring through MetricsRegistrar.
type Metrics struct {
	SamplesProduced *prometheus.CounterVec
	SamplesDrained  *prometheus.CounterVec
	SamplesDropped  *prometheus.CounterVec
	SamplesSpilled  *prometheus.CounterVec
	SinkErrors      *prometheus.CounterVec
	DrainDuration   *prometheus.HistogramVec
	SpillDepth      *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		SamplesProduced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "samples_produced_total",
				Help:      "Total number of samples taken from the source",
			},
			[]string{"sampler"},
		),

		SamplesDrained: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "samples_drained_total",
				Help:      "Total number of samples delivered to the sink",
			},
			[]string{"sampler"},
		),

		SamplesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "samples_dropped_total",
				Help:      "Total number of samples dropped by the overflow policy or at shutdown",
			},
			[]string{"sampler", "reason"},
		),

		SamplesSpilled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "samples_spilled_total",
				Help:      "Total number of samples parked in the spill queue",
			},
			[]string{"sampler"},
		),

		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ringbuf",
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of sink batches that failed after retries",
			},
			[]string{"sampler"},
		),

		DrainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "drain_duration_seconds",
				Help:      "Time spent draining one batch into the sink",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"sampler"},
		),

		SpillDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ringbuf",
				Subsystem: "sampler",
				Name:      "spill_depth",
				Help:      "Samples currently parked in the spill queue",
			},
			[]string{"sampler"},
		),
	}
}

func (c *Metrics) mustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.SamplesProduced,
		c.SamplesDrained,
		c.SamplesDropped,
		c.SamplesSpilled,
		c.SinkErrors,
		c.DrainDuration,
		c.SpillDepth,
	)
}

// RecordProduced increments the produced counter
func (c *Metrics) RecordProduced(sampler string) {
	c.SamplesProduced.WithLabelValues(sampler).Inc()
}

// RecordDrained adds n delivered samples
func (c *Metrics) RecordDrained(sampler string, n int) {
	c.SamplesDrained.WithLabelValues(sampler).Add(float64(n))
}

// RecordDropped adds n lost samples under reason
func (c *Metrics) RecordDropped(sampler, reason string, n int) {
	c.SamplesDropped.WithLabelValues(sampler, reason).Add(float64(n))
}

// RecordSpilled increments the spilled counter and updates the spill depth
func (c *Metrics) RecordSpilled(sampler string, depth int) {
	c.SamplesSpilled.WithLabelValues(sampler).Inc()
	c.SpillDepth.WithLabelValues(sampler).Set(float64(depth))
}

// RecordSpillDepth updates the spill depth gauge
func (c *Metrics) RecordSpillDepth(sampler string, depth int) {
	c.SpillDepth.WithLabelValues(sampler).Set(float64(depth))
}

// RecordSinkError increments the sink error counter
func (c *Metrics) RecordSinkError(sampler string) {
	c.SinkErrors.WithLabelValues(sampler).Inc()
}

// RecordDrainDuration records the time spent on one drain
func (c *Metrics) RecordDrainDuration(sampler string, d time.Duration) {
	c.DrainDuration.WithLabelValues(sampler).Observe(d.Seconds())
}
