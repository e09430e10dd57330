package buffer

import (
	"unsafe"

	"github.com/c360/ringbuf/errors"
)

// Ring is a fixed-capacity FIFO of T backed by capacity+1 slots allocated once.
//
// Ring does no locking: one owner calls Write, Read, Peek and Clear. Share it
// between goroutines only under external synchronisation.
type Ring[T any] struct {
	core
	items []T
}

var _ Buffer[int] = (*Ring[int])(nil)

// New creates a ring holding up to capacity records of type T.
//
// A zero capacity is accepted and yields a ring that is always both empty and full.
// A negative capacity fails with ErrInvalidCapacity; storage that cannot be sized
// or allocated fails with ErrAllocationFailure.
func New[T any](capacity int, options ...Option) (*Ring[T], error) {
	opts := applyOptions(options...)

	var zero T
	slots, bytes, err := storageSlots("Ring", capacity, uint64(unsafe.Sizeof(zero)), opts.maxStorageBytes)
	if err != nil {
		return nil, err
	}

	items, err := allocate[T]("Ring", slots)
	if err != nil {
		return nil, err
	}

	c, err := newCore("Ring", slots, opts)
	if err != nil {
		return nil, err
	}

	opts.logger.Debug("Ring buffer created",
		"ring", opts.name,
		"capacity", capacity,
		"slots", slots,
		"bytes", bytes)

	return &Ring[T]{core: c, items: items}, nil
}

// Write appends rec, or returns ErrFull without touching the ring.
func (r *Ring[T]) Write(rec T) error {
	if r == nil {
		return errors.ErrInvalidHandle
	}
	slot, err := r.beginWrite()
	if err != nil {
		return err
	}
	r.items[slot] = rec
	r.endWrite()
	return nil
}

// Read removes the oldest record and stores it in *dst. A nil dst drops the
// record without copying it. An empty ring returns ErrEmpty and is not changed.
func (r *Ring[T]) Read(dst *T) error {
	if r == nil {
		return errors.ErrInvalidHandle
	}
	slot, err := r.beginRead()
	if err != nil {
		return err
	}
	if dst != nil {
		*dst = r.items[slot]
	}
	if r.opts.releaseSlots {
		var zero T
		r.items[slot] = zero
	}
	r.endRead(dst == nil)
	return nil
}

// Pop removes and returns the oldest record.
func (r *Ring[T]) Pop() (T, error) {
	var rec T
	err := r.Read(&rec)
	return rec, err
}

// Peek returns a pointer to the i-th oldest record, 0 being the next one Read
// would return. The pointer aliases ring storage: it stays valid until a Write,
// Clear or Close reuses that slot, so do not keep it across those calls.
// Indexes outside [0, Size()) return ErrOutOfRange.
func (r *Ring[T]) Peek(i int) (*T, error) {
	if r == nil {
		return nil, errors.ErrInvalidHandle
	}
	slot, err := r.locate(i)
	if err != nil {
		return nil, err
	}
	return &r.items[slot], nil
}

// IsEmpty reports whether the ring holds no records.
func (r *Ring[T]) IsEmpty() bool {
	r.check("IsEmpty")
	return r.empty()
}

// IsFull reports whether the next Write would return ErrFull.
func (r *Ring[T]) IsFull() bool {
	r.check("IsFull")
	return r.full()
}

// Size returns the number of records held.
func (r *Ring[T]) Size() int {
	r.check("Size")
	return r.size()
}

// Capacity returns the maximum number of records the ring can hold.
func (r *Ring[T]) Capacity() int {
	r.check("Capacity")
	return r.capacity()
}

// Clear forgets every record by resetting both cursors. Storage is left as is
// unless the ring was built WithReleaseSlots.
func (r *Ring[T]) Clear() {
	r.check("Clear")
	if r.opts.releaseSlots {
		clear(r.items)
	}
	r.clear()
}

// Name returns the instance name used in logs and metric labels.
func (r *Ring[T]) Name() string {
	if r == nil {
		return ""
	}
	return r.opts.name
}

// Stats returns the ring statistics. They remain readable after Close.
func (r *Ring[T]) Stats() *Statistics {
	if r == nil {
		return nil
	}
	return r.stats
}

// Close releases the storage and unregisters metrics. Closing a nil or
// already closed ring does nothing.
func (r *Ring[T]) Close() error {
	if r == nil {
		return nil
	}
	if r.shutdown() {
		r.items = nil
	}
	return nil
}

func (r *Ring[T]) check(method string) {
	if r == nil {
		panic(invalidHandle("Ring", method))
	}
	r.mustOpen(method)
}
