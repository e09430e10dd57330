package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/c360/ringbuf/config"
	"github.com/c360/ringbuf/errors"
	"github.com/c360/ringbuf/health"
	"github.com/c360/ringbuf/metric"
	"github.com/c360/ringbuf/pkg/buffer"
	"github.com/c360/ringbuf/pkg/retry"
)

// Drop reasons reported in logs and the samples_dropped_total metric.
const (
	DropFull      = "full"       // ring full under drop_newest
	DropEvicted   = "evicted"    // oldest record evicted under drop_oldest
	DropSpillFull = "spill_full" // spill queue at its limit
	DropShutdown  = "shutdown"   // spill left over that could not be flushed
)

// Sampler moves samples from a Source through a RecordRing into a Sink.
//
// One goroutine owns a Sampler: Run, or direct calls to Offer, Drain and
// Flush. The ring is never shared.
type Sampler struct {
	name   string
	ring   *buffer.RecordRing
	source Source
	sink   Sink

	policy     string
	spill      *queue.Queue
	spillLimit int
	batchSize  int

	sampleInterval time.Duration
	drainInterval  time.Duration
	flushTimeout   time.Duration
	retry          retry.Config

	metrics *metric.Metrics
	monitor *health.Monitor
	logger  *slog.Logger
	running atomic.Bool

	scratch []byte
	batch   []Sample

	produced int64
	drained  int64
	dropped  int64
	spilled  int64

	reportedDrops int64
}

// Option configures a Sampler.
type Option func(*settings)

type settings struct {
	source       Source
	registry     *metric.MetricsRegistry
	monitor      *health.Monitor
	logger       *slog.Logger
	flushTimeout time.Duration
	now          func() time.Time
}

// WithSource replaces the default sine source.
func WithSource(src Source) Option {
	return func(s *settings) {
		if src != nil {
			s.source = src
		}
	}
}

// WithMetricsRegistry exports ring and sampler metrics through registry.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(s *settings) {
		s.registry = registry
	}
}

// WithHealth reports the sampler's state to monitor after every drain Run
// performs.
func WithHealth(monitor *health.Monitor) Option {
	return func(s *settings) {
		s.monitor = monitor
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFlushTimeout bounds the final flush Run performs on shutdown. Default 5s.
func WithFlushTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.flushTimeout = d
		}
	}
}

// New builds a sampler and its ring from cfg. The caller keeps ownership of
// sink and closes it after the sampler.
func New(cfg *config.Config, sink Sink, options ...Option) (*Sampler, error) {
	if cfg == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Sampler", "New", "check config")
	}
	if sink == nil {
		return nil, errors.WrapFatal(fmt.Errorf("%w: sink", errors.ErrMissingConfig), "Sampler", "New", "check sink")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := settings{
		logger:       slog.Default(),
		flushTimeout: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range options {
		opt(&st)
	}
	if st.source == nil {
		st.source = NewSineSource(cfg.Sampler.Amplitude, cfg.Sampler.Period.Std(), st.now())
	}

	name := cfg.Sampler.Name
	ringOpts := []buffer.Option{
		buffer.WithName(name),
		buffer.WithLogger(st.logger),
		buffer.WithMaxStorageBytes(cfg.Buffer.MaxStorageBytes),
	}
	if cfg.Buffer.ReleaseSlots {
		ringOpts = append(ringOpts, buffer.WithReleaseSlots())
	}

	metrics := metric.NewMetrics()
	if st.registry != nil {
		ringOpts = append(ringOpts, buffer.WithMetrics(st.registry, name))
		metrics = st.registry.CoreMetrics()
	}

	ring, err := buffer.NewRecordRing(SampleSize, cfg.Buffer.Capacity, ringOpts...)
	if err != nil {
		return nil, err
	}

	s := &Sampler{
		name:           name,
		ring:           ring,
		source:         st.source,
		sink:           sink,
		policy:         cfg.Sampler.OverflowPolicy,
		spill:          queue.New(),
		spillLimit:     cfg.Sampler.SpillLimit,
		batchSize:      cfg.Sampler.BatchSize,
		sampleInterval: cfg.Sampler.SampleInterval.Std(),
		drainInterval:  cfg.Sampler.DrainInterval.Std(),
		flushTimeout:   st.flushTimeout,
		retry:          cfg.Sink.Retry.RetryPolicy().ToRetryConfig(),
		metrics:        metrics,
		monitor:        st.monitor,
		logger:         st.logger,
		scratch:        make([]byte, SampleSize),
		batch:          make([]Sample, 0, cfg.Sampler.BatchSize),
	}

	s.logger.Info("Sampler created",
		"sampler", name,
		"capacity", cfg.Buffer.Capacity,
		"overflow_policy", s.policy,
		"batch_size", s.batchSize)

	return s, nil
}

// Offer writes one sample into the ring, applying the overflow policy when
// the ring is full. Policy drops are counted, not returned; only a failure of
// the ring itself is an error.
func (s *Sampler) Offer(sample Sample) error {
	s.produced++
	s.metrics.RecordProduced(s.name)

	// Keep FIFO order: while older samples wait in the spill queue, new ones queue behind them
	if s.policy == config.OverflowSpill && s.spill.Length() > 0 {
		s.park(sample)
		return nil
	}

	err := s.write(sample)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.ErrFull) {
		return err
	}

	switch s.policy {
	case config.OverflowDropOldest:
		if rerr := s.ring.Read(nil); rerr != nil {
			// Zero capacity: there is nothing to evict
			s.drop(DropFull, 1)
			return nil
		}
		s.drop(DropEvicted, 1)
		return s.write(sample)
	case config.OverflowSpill:
		s.park(sample)
	default:
		s.drop(DropFull, 1)
	}
	return nil
}

func (s *Sampler) write(sample Sample) error {
	sample.Encode(s.scratch)
	return s.ring.Write(s.scratch)
}

func (s *Sampler) park(sample Sample) {
	if s.spill.Length() >= s.spillLimit {
		s.drop(DropSpillFull, 1)
		return
	}
	s.spill.Add(sample)
	s.spilled++
	s.metrics.RecordSpilled(s.name, s.spill.Length())
}

func (s *Sampler) drop(reason string, n int) {
	s.dropped += int64(n)
	s.metrics.RecordDropped(s.name, reason, n)
}

// refill moves parked samples into the ring until it is full.
func (s *Sampler) refill() {
	for s.spill.Length() > 0 {
		if err := s.write(s.spill.Peek().(Sample)); err != nil {
			break
		}
		s.spill.Remove()
	}
	s.metrics.RecordSpillDepth(s.name, s.spill.Length())
}

// Drain delivers up to batch_size of the oldest records to the sink.
//
// Records are decoded in place with Peek and only released from the ring once
// the sink accepted the batch, so a failed delivery loses nothing and the
// next Drain retries the same records.
func (s *Sampler) Drain(ctx context.Context) (int, error) {
	n := min(s.ring.Size(), s.batchSize)
	if n == 0 {
		s.refill()
		return 0, nil
	}

	start := time.Now()
	s.batch = s.batch[:0]
	w := newWindow()
	for i := 0; i < n; i++ {
		rec, err := s.ring.Peek(i)
		if err != nil {
			return 0, errors.Wrap(err, "Sampler", "Drain", "peek record")
		}
		sample, err := DecodeSample(rec)
		if err != nil {
			return 0, err
		}
		s.batch = append(s.batch, sample)
		w.add(sample.Value)
	}

	s.logger.Debug("Drain window",
		"sampler", s.name,
		"count", n,
		"buffered", s.ring.Size(),
		"min", w.min,
		"max", w.max,
		"mean", w.mean())

	err := retry.Do(ctx, s.retry, func() error {
		return s.sink.Write(ctx, s.batch)
	})
	s.metrics.RecordDrainDuration(s.name, time.Since(start))
	if err != nil {
		s.metrics.RecordSinkError(s.name)
		return 0, errors.Wrap(err, "Sampler", "Drain", "deliver batch")
	}

	for i := 0; i < n; i++ {
		if err := s.ring.Read(nil); err != nil {
			return i, errors.Wrap(err, "Sampler", "Drain", "release record")
		}
	}
	s.drained += int64(n)
	s.metrics.RecordDrained(s.name, n)

	s.refill()
	return n, nil
}

// Flush drains until the ring and the spill queue are empty. Spilled samples
// that can never enter the ring (zero capacity) are dropped.
func (s *Sampler) Flush(ctx context.Context) error {
	for {
		n, err := s.Drain(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if left := s.spill.Length(); left > 0 {
			s.logger.Warn("Dropping spilled samples that cannot be buffered",
				"sampler", s.name, "count", left)
			for s.spill.Length() > 0 {
				s.spill.Remove()
			}
			s.drop(DropShutdown, left)
			s.metrics.RecordSpillDepth(s.name, 0)
		}
		return nil
	}
}

// Run samples and drains on their configured intervals until ctx is done,
// then flushes what is left within the flush timeout. A fatal error (closed
// sink, closed ring) stops Run early; transient sink failures are logged and
// the records stay buffered.
func (s *Sampler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Sampler", "Run", "start sampler")
	}
	defer s.running.Store(false)

	sampleTicker := time.NewTicker(s.sampleInterval)
	defer sampleTicker.Stop()
	drainTicker := time.NewTicker(s.drainInterval)
	defer drainTicker.Stop()

	s.logger.Info("Sampler running",
		"sampler", s.name,
		"sample_interval", s.sampleInterval,
		"drain_interval", s.drainInterval)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(ctx)

		case now := <-sampleTicker.C:
			if err := s.Offer(s.source.Next(now)); err != nil {
				return err
			}

		case <-drainTicker.C:
			_, err := s.Drain(ctx)
			s.reportHealth(err)
			if err != nil {
				if errors.IsFatal(err) {
					return err
				}
				if ctx.Err() == nil {
					s.logger.Warn("Drain failed, records kept for the next drain",
						"sampler", s.name,
						"buffered", s.ring.Size(),
						"error", err)
				}
			}
		}
	}
}

func (s *Sampler) shutdown(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flushTimeout)
	defer cancel()

	err := s.Flush(flushCtx)
	if s.monitor != nil {
		s.monitor.Update(s.name, health.NewUnhealthy(s.name, "sampler stopped").WithMetrics(s.healthMetrics()))
	}
	st := s.Stats()
	s.logger.Info("Sampler stopped",
		"sampler", s.name,
		"produced", st.Produced,
		"drained", st.Drained,
		"dropped", st.Dropped,
		"spilled", st.Spilled,
		"left_buffered", st.Ring.CurrentSize)
	if err != nil {
		return errors.Wrap(err, "Sampler", "Run", "final flush")
	}
	return nil
}

// reportHealth publishes the outcome of the last drain. A failed drain is
// unhealthy; new drops or a non-empty spill queue are degraded.
func (s *Sampler) reportHealth(drainErr error) {
	if s.monitor == nil {
		return
	}

	var status health.Status
	switch {
	case drainErr != nil:
		status = health.FromError(s.name, drainErr)
	case s.dropped > s.reportedDrops:
		status = health.NewDegraded(s.name,
			fmt.Sprintf("dropped %d samples since last drain", s.dropped-s.reportedDrops))
	case s.spill.Length() > 0:
		status = health.NewDegraded(s.name,
			fmt.Sprintf("spill queue holding %d samples", s.spill.Length()))
	default:
		status = health.NewHealthy(s.name, "samples flowing")
	}
	s.reportedDrops = s.dropped

	s.monitor.Update(s.name, status.WithMetrics(s.healthMetrics()))
}

func (s *Sampler) healthMetrics() *health.Metrics {
	return &health.Metrics{
		Produced:   s.produced,
		Drained:    s.drained,
		Dropped:    s.dropped,
		Buffered:   s.ring.Size(),
		Capacity:   s.ring.Capacity(),
		SpillDepth: s.spill.Length(),
	}
}

// Stats is a snapshot of sampler counters.
type Stats struct {
	Produced   int64               `json:"produced"`
	Drained    int64               `json:"drained"`
	Dropped    int64               `json:"dropped"`
	Spilled    int64               `json:"spilled"`
	SpillDepth int                 `json:"spill_depth"`
	Ring       buffer.StatsSummary `json:"ring"`
}

// Stats returns the current counters. Call it from the owning goroutine or
// after Run has returned.
func (s *Sampler) Stats() Stats {
	return Stats{
		Produced:   s.produced,
		Drained:    s.drained,
		Dropped:    s.dropped,
		Spilled:    s.spilled,
		SpillDepth: s.spill.Length(),
		Ring:       s.ring.Stats().Summary(),
	}
}

// Buffered returns the number of records waiting in the ring.
func (s *Sampler) Buffered() int {
	return s.ring.Size()
}

// Close releases the ring and its metrics. The sink is left to the caller.
func (s *Sampler) Close() error {
	return s.ring.Close()
}

// window accumulates min, max and mean over one drain batch.
type window struct {
	min, max, sum float64
	n             int
}

func newWindow() window {
	return window{min: math.Inf(1), max: math.Inf(-1)}
}

func (w *window) add(v float64) {
	w.min = math.Min(w.min, v)
	w.max = math.Max(w.max, v)
	w.sum += v
	w.n++
}

func (w *window) mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}
