package sampler

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/c360/ringbuf/errors"
)

// SampleSize is the encoded size of a Sample in bytes.
const SampleSize = 24

// Sample is one reading from the sensor source.
type Sample struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Encode writes s into dst as three little-endian 8-byte fields: sequence,
// Unix nanoseconds and the IEEE-754 value. dst must hold SampleSize bytes.
func (s Sample) Encode(dst []byte) {
	_ = dst[SampleSize-1]
	binary.LittleEndian.PutUint64(dst[0:8], s.Seq)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(s.Timestamp.UnixNano()))
	binary.LittleEndian.PutUint64(dst[16:24], math.Float64bits(s.Value))
}

// DecodeSample reads a Sample written by Encode.
func DecodeSample(src []byte) (Sample, error) {
	if len(src) < SampleSize {
		return Sample{}, errors.WrapInvalid(
			fmt.Errorf("%w: %d bytes, want %d", errors.ErrInvalidData, len(src), SampleSize),
			"Sample", "Decode", "check record length")
	}
	return Sample{
		Seq:       binary.LittleEndian.Uint64(src[0:8]),
		Timestamp: time.Unix(0, int64(binary.LittleEndian.Uint64(src[8:16]))),
		Value:     math.Float64frombits(binary.LittleEndian.Uint64(src[16:24])),
	}, nil
}

// Source produces samples on demand.
type Source interface {
	Next(now time.Time) Sample
}

// SineSource is a synthetic sensor reporting amplitude*sin(2*pi*t/period).
type SineSource struct {
	amplitude float64
	period    time.Duration
	start     time.Time
	seq       uint64
}

// NewSineSource creates a sine source whose phase starts at start.
func NewSineSource(amplitude float64, period time.Duration, start time.Time) *SineSource {
	return &SineSource{amplitude: amplitude, period: period, start: start}
}

// Next returns the reading at now with the next sequence number.
func (s *SineSource) Next(now time.Time) Sample {
	s.seq++
	phase := 2 * math.Pi * float64(now.Sub(s.start)) / float64(s.period)
	return Sample{
		Seq:       s.seq,
		Timestamp: now,
		Value:     s.amplitude * math.Sin(phase),
	}
}
