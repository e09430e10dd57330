package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics tracks ring activity. Counters are atomic so a monitoring goroutine
// may read them while the owner keeps writing; the ring itself is still
// single-owner.
type Statistics struct {
	writes         atomic.Int64
	reads          atomic.Int64
	discards       atomic.Int64
	peeks          atomic.Int64
	fullRejections atomic.Int64
	emptyReads     atomic.Int64
	clears         atomic.Int64

	currentSize atomic.Int64
	maxSize     atomic.Int64
	startNanos  atomic.Int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.startNanos.Store(time.Now().UnixNano())
	return s
}

// Write records an accepted write.
func (s *Statistics) Write() {
	s.writes.Add(1)
}

// Read records a read that copied a record out.
func (s *Statistics) Read() {
	s.reads.Add(1)
}

// Discard records a read that dropped the oldest record without copying it.
func (s *Statistics) Discard() {
	s.discards.Add(1)
}

// Peek records a successful peek.
func (s *Statistics) Peek() {
	s.peeks.Add(1)
}

// Full records a write rejected because the ring was full.
func (s *Statistics) Full() {
	s.fullRejections.Add(1)
}

// Empty records a read attempted on an empty ring.
func (s *Statistics) Empty() {
	s.emptyReads.Add(1)
}

// Clear records a clear.
func (s *Statistics) Clear() {
	s.clears.Add(1)
}

// UpdateSize records the current occupancy and raises the high-water mark.
// Only the ring owner calls it, so the max update needs no compare-and-swap.
func (s *Statistics) UpdateSize(size int64) {
	s.currentSize.Store(size)
	if size > s.maxSize.Load() {
		s.maxSize.Store(size)
	}
}

// Writes returns the number of accepted writes.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the number of reads that copied a record out.
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Discards returns the number of records dropped by Read(nil).
func (s *Statistics) Discards() int64 { return s.discards.Load() }

// Peeks returns the number of successful peeks.
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// FullRejections returns the number of writes refused with ErrFull.
func (s *Statistics) FullRejections() int64 { return s.fullRejections.Load() }

// EmptyReads returns the number of reads refused with ErrEmpty.
func (s *Statistics) EmptyReads() int64 { return s.emptyReads.Load() }

// Clears returns the number of Clear calls.
func (s *Statistics) Clears() int64 { return s.clears.Load() }

// CurrentSize returns the occupancy at the last operation.
func (s *Statistics) CurrentSize() int64 { return s.currentSize.Load() }

// MaxSize returns the highest occupancy seen.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }

// Uptime returns how long the statistics have been collecting.
func (s *Statistics) Uptime() time.Duration {
	return time.Since(time.Unix(0, s.startNanos.Load()))
}

// Throughput returns accepted writes per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime().Seconds()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Writes()) / elapsed
}

// FullRate returns the fraction of write attempts rejected as full (0.0 to 1.0).
func (s *Statistics) FullRate() float64 {
	rejected := s.FullRejections()
	attempts := s.Writes() + rejected
	if attempts == 0 {
		return 0.0
	}
	return float64(rejected) / float64(attempts)
}

// Utilization returns current occupancy relative to capacity (0.0 to 1.0).
// A zero-capacity ring reports 0.
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity <= 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Reset zeroes every counter and restarts the uptime clock.
func (s *Statistics) Reset() {
	s.writes.Store(0)
	s.reads.Store(0)
	s.discards.Store(0)
	s.peeks.Store(0)
	s.fullRejections.Store(0)
	s.emptyReads.Store(0)
	s.clears.Store(0)
	s.currentSize.Store(0)
	s.maxSize.Store(0)
	s.startNanos.Store(time.Now().UnixNano())
}

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	Writes         int64         `json:"writes"`
	Reads          int64         `json:"reads"`
	Discards       int64         `json:"discards"`
	Peeks          int64         `json:"peeks"`
	FullRejections int64         `json:"full_rejections"`
	EmptyReads     int64         `json:"empty_reads"`
	Clears         int64         `json:"clears"`
	CurrentSize    int64         `json:"current_size"`
	MaxSize        int64         `json:"max_size"`
	Throughput     float64       `json:"throughput"`
	FullRate       float64       `json:"full_rate"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Writes:         s.Writes(),
		Reads:          s.Reads(),
		Discards:       s.Discards(),
		Peeks:          s.Peeks(),
		FullRejections: s.FullRejections(),
		EmptyReads:     s.EmptyReads(),
		Clears:         s.Clears(),
		CurrentSize:    s.CurrentSize(),
		MaxSize:        s.MaxSize(),
		Throughput:     s.Throughput(),
		FullRate:       s.FullRate(),
		Uptime:         s.Uptime(),
	}
}
