package buffer

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Counters(t *testing.T) {
	s := NewStatistics()

	s.Write()
	s.Write()
	s.Write()
	s.Read()
	s.Discard()
	s.Peek()
	s.Full()
	s.Empty()
	s.Clear()

	assert.Equal(t, int64(3), s.Writes())
	assert.Equal(t, int64(1), s.Reads())
	assert.Equal(t, int64(1), s.Discards())
	assert.Equal(t, int64(1), s.Peeks())
	assert.Equal(t, int64(1), s.FullRejections())
	assert.Equal(t, int64(1), s.EmptyReads())
	assert.Equal(t, int64(1), s.Clears())
}

func TestStatistics_SizeHighWaterMark(t *testing.T) {
	s := NewStatistics()

	for _, size := range []int64{1, 2, 5, 3, 0, 4} {
		s.UpdateSize(size)
	}

	assert.Equal(t, int64(4), s.CurrentSize())
	assert.Equal(t, int64(5), s.MaxSize())
}

func TestStatistics_FullRate(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, 0.0, s.FullRate())

	for i := 0; i < 3; i++ {
		s.Write()
	}
	s.Full()
	assert.InDelta(t, 0.25, s.FullRate(), 1e-9)
}

func TestStatistics_Utilization(t *testing.T) {
	s := NewStatistics()
	s.UpdateSize(3)

	assert.InDelta(t, 0.75, s.Utilization(4), 1e-9)
	assert.Equal(t, 0.0, s.Utilization(0))
	assert.Equal(t, 0.0, s.Utilization(-1))
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Write()
	s.Full()
	s.UpdateSize(7)
	time.Sleep(5 * time.Millisecond)
	before := s.Uptime()

	s.Reset()

	assert.Equal(t, StatsSummary{}, zeroDurations(s.Summary()))
	assert.Less(t, s.Uptime(), before)
}

func TestStatistics_SummaryJSON(t *testing.T) {
	s := NewStatistics()
	s.Write()
	s.UpdateSize(1)

	data, err := json.Marshal(s.Summary())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1.0, decoded["writes"])
	assert.Equal(t, 1.0, decoded["max_size"])
	assert.Contains(t, decoded, "full_rate")
	assert.Contains(t, decoded, "uptime")
}

func TestStatistics_ConcurrentReaders(t *testing.T) {
	r := newTestRing[int](t, 64)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = r.Stats().Summary()
				}
			}
		}()
	}

	for i := 0; i < 10000; i++ {
		_ = r.Write(i)
		_ = r.Read(nil)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, int64(10000), r.Stats().Writes())
	assert.Equal(t, int64(10000), r.Stats().Discards())
}

func zeroDurations(s StatsSummary) StatsSummary {
	s.Uptime = 0
	s.Throughput = 0
	return s
}
