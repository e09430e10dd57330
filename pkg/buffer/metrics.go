package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/ringbuf/metric"
)

// ringMetrics holds Prometheus metrics for one ring.
type ringMetrics struct {
	registrar metric.MetricsRegistrar
	owner     string
	names     []string // registered metric names, for unregister

	writes         prometheus.Counter
	reads          prometheus.Counter
	discards       prometheus.Counter
	peeks          prometheus.Counter
	fullRejections prometheus.Counter
	emptyReads     prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
	capacity    prometheus.Gauge
}

func ringCounter(name, ring, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "ringbuf",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"ring": ring},
		Help:        help,
	})
}

func ringGauge(name, ring, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "ringbuf",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"ring": ring},
		Help:        help,
	})
}

// newRingMetrics creates and registers the metrics of ring name. On failure
// nothing stays registered.
func newRingMetrics(registrar metric.MetricsRegistrar, name string, capacity int) (*ringMetrics, error) {
	m := &ringMetrics{
		registrar:      registrar,
		owner:          name,
		writes:         ringCounter("writes_total", name, "Total number of accepted ring writes"),
		reads:          ringCounter("reads_total", name, "Total number of ring reads that copied a record"),
		discards:       ringCounter("discards_total", name, "Total number of records dropped without a copy"),
		peeks:          ringCounter("peeks_total", name, "Total number of ring peeks"),
		fullRejections: ringCounter("full_total", name, "Total number of writes rejected because the ring was full"),
		emptyReads:     ringCounter("empty_total", name, "Total number of reads attempted on an empty ring"),
		size:           ringGauge("size", name, "Current number of records in the ring"),
		utilization:    ringGauge("utilization", name, "Ring occupancy relative to capacity (0.0 to 1.0)"),
		capacity:       ringGauge("capacity", name, "Logical capacity of the ring"),
	}

	counters := []struct {
		name string
		c    prometheus.Counter
	}{
		{"ring_writes", m.writes},
		{"ring_reads", m.reads},
		{"ring_discards", m.discards},
		{"ring_peeks", m.peeks},
		{"ring_full", m.fullRejections},
		{"ring_empty", m.emptyReads},
	}
	for _, c := range counters {
		if err := registrar.RegisterCounter(name, c.name, c.c); err != nil {
			m.unregister()
			return nil, err
		}
		m.names = append(m.names, c.name)
	}

	gauges := []struct {
		name string
		g    prometheus.Gauge
	}{
		{"ring_size", m.size},
		{"ring_utilization", m.utilization},
		{"ring_capacity", m.capacity},
	}
	for _, g := range gauges {
		if err := registrar.RegisterGauge(name, g.name, g.g); err != nil {
			m.unregister()
			return nil, err
		}
		m.names = append(m.names, g.name)
	}

	m.capacity.Set(float64(capacity))
	return m, nil
}

func (m *ringMetrics) recordWrite(size, capacity int) {
	m.writes.Inc()
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordRead(size, capacity int, discarded bool) {
	if discarded {
		m.discards.Inc()
	} else {
		m.reads.Inc()
	}
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordPeek() {
	m.peeks.Inc()
}

func (m *ringMetrics) recordFull() {
	m.fullRejections.Inc()
}

func (m *ringMetrics) recordEmpty() {
	m.emptyReads.Inc()
}

func (m *ringMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	if capacity > 0 {
		m.utilization.Set(float64(size) / float64(capacity))
	}
}

func (m *ringMetrics) unregister() {
	for _, name := range m.names {
		m.registrar.Unregister(m.owner, name)
	}
	m.names = nil
}
