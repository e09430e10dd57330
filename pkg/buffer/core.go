package buffer

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/c360/ringbuf/errors"
)

// core is the bookkeeping shared by Ring and RecordRing: cursors, statistics,
// optional metrics and the closed flag. Storage lives in the concrete types.
type core struct {
	cursors

	component string
	opts      *ringOptions
	stats     *Statistics  // always present
	metrics   *ringMetrics // nil unless WithMetrics was given
	closed    bool
}

// storageSlots validates a requested capacity and returns the slot count,
// checking that slots*elemSize bytes is representable and within the limit.
func storageSlots(component string, capacity int, elemSize uint64, limit uint64) (int, uint64, error) {
	if capacity < 0 {
		return 0, 0, errors.WrapInvalid(errors.ErrInvalidCapacity, component, "New",
			fmt.Sprintf("validate capacity %d", capacity))
	}
	if capacity == math.MaxInt {
		return 0, 0, errors.WrapFatal(errors.ErrAllocationFailure, component, "New",
			"compute slot count")
	}
	slots := capacity + 1

	hi, total := bits.Mul64(uint64(slots), elemSize)
	if hi != 0 || total > math.MaxInt {
		return 0, 0, errors.WrapFatal(errors.ErrAllocationFailure, component, "New",
			fmt.Sprintf("size %d slots of %d bytes", slots, elemSize))
	}
	if limit > 0 && total > limit {
		return 0, 0, errors.WrapFatal(errors.ErrAllocationFailure, component, "New",
			fmt.Sprintf("fit %d bytes in storage limit of %d", total, limit))
	}
	return slots, total, nil
}

// allocate turns the runtime's makeslice panic into ErrAllocationFailure.
// A genuine out-of-memory condition still kills the process.
func allocate[T any](component string, n int) (s []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrAllocationFailure, r),
				component, "New", "allocate storage")
		}
	}()
	return make([]T, n), nil
}

func newCore(component string, slots int, opts *ringOptions) (core, error) {
	c := core{
		cursors:   newCursors(slots),
		component: component,
		opts:      opts,
		stats:     NewStatistics(),
	}

	if opts.metricsReg != nil {
		m, err := newRingMetrics(opts.metricsReg, opts.name, slots-1)
		if err != nil {
			return core{}, errors.WrapTransient(err, component, "New", "metrics registration")
		}
		c.metrics = m
	}

	return c, nil
}

// beginWrite returns the slot the next record goes to, or ErrFull.
func (c *core) beginWrite() (int, error) {
	if c.closed {
		return 0, errors.ErrInvalidHandle
	}
	if c.full() {
		c.stats.Full()
		if c.metrics != nil {
			c.metrics.recordFull()
		}
		return 0, errors.ErrFull
	}
	return c.in, nil
}

func (c *core) endWrite() {
	c.in = c.advance(c.in)

	size := c.size()
	c.stats.Write()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordWrite(size, c.capacity())
	}
}

// beginRead returns the slot holding the oldest record, or ErrEmpty.
func (c *core) beginRead() (int, error) {
	if c.closed {
		return 0, errors.ErrInvalidHandle
	}
	if c.empty() {
		c.stats.Empty()
		if c.metrics != nil {
			c.metrics.recordEmpty()
		}
		return 0, errors.ErrEmpty
	}
	return c.out, nil
}

func (c *core) endRead(discarded bool) {
	c.out = c.advance(c.out)

	size := c.size()
	if discarded {
		c.stats.Discard()
	} else {
		c.stats.Read()
	}
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordRead(size, c.capacity(), discarded)
	}
}

// locate maps a Peek index to its slot.
func (c *core) locate(i int) (int, error) {
	if c.closed {
		return 0, errors.ErrInvalidHandle
	}
	if i < 0 || i >= c.size() {
		return 0, errors.ErrOutOfRange
	}
	c.stats.Peek()
	if c.metrics != nil {
		c.metrics.recordPeek()
	}
	return c.physical(i), nil
}

// mustOpen panics on a closed ring; used by methods that have no error result.
func (c *core) mustOpen(method string) {
	if c.closed {
		panic(errors.WrapFatal(errors.ErrInvalidHandle, c.component, method, "use closed ring"))
	}
}

func (c *core) clear() {
	c.reset()
	c.stats.Clear()
	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.updateSize(0, c.capacity())
	}
	c.opts.logger.Debug("Ring buffer cleared", "ring", c.opts.name)
}

// shutdown marks the ring closed and releases its metrics. It reports false
// when the ring was already closed.
func (c *core) shutdown() bool {
	if c.closed {
		return false
	}
	c.closed = true

	if c.metrics != nil {
		c.metrics.unregister()
		c.metrics = nil
	}

	c.opts.logger.Debug("Ring buffer closed",
		"ring", c.opts.name,
		"writes", c.stats.Writes(),
		"reads", c.stats.Reads(),
		"full_rejections", c.stats.FullRejections(),
		"max_size", c.stats.MaxSize())
	return true
}

func invalidHandle(component, method string) error {
	return errors.WrapFatal(errors.ErrInvalidHandle, component, method, "use nil ring")
}
