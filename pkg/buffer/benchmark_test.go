package buffer

import (
	"fmt"
	"testing"

	"github.com/c360/ringbuf/metric"
)

type benchSample struct {
	Seq       uint64
	Timestamp int64
	Value     float64
}

func BenchmarkRing_WriteRead(b *testing.B) {
	r, err := New[benchSample](1024)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	var out benchSample
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Write(benchSample{Seq: uint64(i)})
		_ = r.Read(&out)
	}
}

func BenchmarkRing_WriteReadWithMetrics(b *testing.B) {
	r, err := New[benchSample](1024, WithMetrics(metric.NewMetricsRegistry(), "bench"))
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	var out benchSample
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Write(benchSample{Seq: uint64(i)})
		_ = r.Read(&out)
	}
}

func BenchmarkRing_FillDrain(b *testing.B) {
	const capacity = 256
	r, err := New[uint64](capacity)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < capacity; j++ {
			_ = r.Write(uint64(j))
		}
		for j := 0; j < capacity; j++ {
			_ = r.Read(nil)
		}
	}
}

func BenchmarkRing_Peek(b *testing.B) {
	r, err := New[benchSample](1024)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()
	for i := 0; i < 1024; i++ {
		_ = r.Write(benchSample{Seq: uint64(i)})
	}

	var sum float64
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, _ := r.Peek(i & 1023)
		sum += p.Value
	}
	_ = sum
}

func BenchmarkRing_WriteFull(b *testing.B) {
	r, err := New[uint64](0)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Write(uint64(i))
	}
}

func BenchmarkRecordRing_WriteRead(b *testing.B) {
	for _, size := range []int{8, 24, 256} {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			r, err := NewRecordRing(size, 1024)
			if err != nil {
				b.Fatal(err)
			}
			defer r.Close()

			in := make([]byte, size)
			out := make([]byte, size)
			b.SetBytes(int64(size))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = r.Write(in)
				_ = r.Read(out)
			}
		})
	}
}
