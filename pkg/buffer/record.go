package buffer

import (
	"fmt"

	"github.com/c360/ringbuf/errors"
)

// RecordRing is a ring of opaque byte records, all exactly RecordSize bytes.
// Storage is one contiguous slice of (capacity+1)*recordSize bytes.
//
// Like Ring, it does no locking.
type RecordRing struct {
	core
	recordSize int
	storage    []byte
}

// NewRecordRing creates a ring holding up to capacity records of recordSize bytes.
// recordSize must be positive. Capacity rules match New.
func NewRecordRing(recordSize, capacity int, options ...Option) (*RecordRing, error) {
	if recordSize <= 0 {
		return nil, errors.WrapInvalid(errors.ErrRecordSize, "RecordRing", "New",
			fmt.Sprintf("validate record size %d", recordSize))
	}

	opts := applyOptions(options...)

	slots, bytes, err := storageSlots("RecordRing", capacity, uint64(recordSize), opts.maxStorageBytes)
	if err != nil {
		return nil, err
	}

	storage, err := allocate[byte]("RecordRing", int(bytes))
	if err != nil {
		return nil, err
	}

	c, err := newCore("RecordRing", slots, opts)
	if err != nil {
		return nil, err
	}

	opts.logger.Debug("Record ring created",
		"ring", opts.name,
		"record_size", recordSize,
		"capacity", capacity,
		"slots", slots,
		"bytes", bytes)

	return &RecordRing{core: c, recordSize: recordSize, storage: storage}, nil
}

func (r *RecordRing) slot(i int) []byte {
	off := i * r.recordSize
	return r.storage[off : off+r.recordSize : off+r.recordSize]
}

// Write copies rec into the ring. rec must be exactly RecordSize bytes, otherwise
// ErrRecordSize is returned. A full ring returns ErrFull. Neither error changes
// the ring.
func (r *RecordRing) Write(rec []byte) error {
	if r == nil || r.closed {
		return errors.ErrInvalidHandle
	}
	if len(rec) != r.recordSize {
		return errors.WrapInvalid(errors.ErrRecordSize, "RecordRing", "Write",
			fmt.Sprintf("write %d byte record into %d byte slot", len(rec), r.recordSize))
	}
	slot, err := r.beginWrite()
	if err != nil {
		return err
	}
	copy(r.slot(slot), rec)
	r.endWrite()
	return nil
}

// Read copies the oldest record into dst and removes it. A nil dst drops the
// record without copying. A non-nil dst must hold at least RecordSize bytes;
// only the first RecordSize bytes are written.
func (r *RecordRing) Read(dst []byte) error {
	if r == nil || r.closed {
		return errors.ErrInvalidHandle
	}
	if dst != nil && len(dst) < r.recordSize {
		return errors.WrapInvalid(errors.ErrRecordSize, "RecordRing", "Read",
			fmt.Sprintf("read %d byte slot into %d bytes", r.recordSize, len(dst)))
	}
	slot, err := r.beginRead()
	if err != nil {
		return err
	}
	if dst != nil {
		copy(dst, r.slot(slot))
	}
	if r.opts.releaseSlots {
		clear(r.slot(slot))
	}
	r.endRead(dst == nil)
	return nil
}

// Peek returns the i-th oldest record as a view into ring storage. The slice
// capacity is clipped to RecordSize so appending to it cannot touch neighbouring
// slots. It stays valid until a Write, Clear or Close reuses that slot.
func (r *RecordRing) Peek(i int) ([]byte, error) {
	if r == nil {
		return nil, errors.ErrInvalidHandle
	}
	slot, err := r.locate(i)
	if err != nil {
		return nil, err
	}
	return r.slot(slot), nil
}

// RecordSize returns the size in bytes of every record.
func (r *RecordRing) RecordSize() int {
	r.check("RecordSize")
	return r.recordSize
}

// IsEmpty reports whether the ring holds no records.
func (r *RecordRing) IsEmpty() bool {
	r.check("IsEmpty")
	return r.empty()
}

// IsFull reports whether the next Write would return ErrFull.
func (r *RecordRing) IsFull() bool {
	r.check("IsFull")
	return r.full()
}

// Size returns the number of records held.
func (r *RecordRing) Size() int {
	r.check("Size")
	return r.size()
}

// Capacity returns the maximum number of records the ring can hold.
func (r *RecordRing) Capacity() int {
	r.check("Capacity")
	return r.capacity()
}

// Clear forgets every record. Storage bytes are kept unless the ring was built
// WithReleaseSlots.
func (r *RecordRing) Clear() {
	r.check("Clear")
	if r.opts.releaseSlots {
		clear(r.storage)
	}
	r.clear()
}

// Name returns the instance name used in logs and metric labels.
func (r *RecordRing) Name() string {
	if r == nil {
		return ""
	}
	return r.opts.name
}

// Stats returns the ring statistics.
func (r *RecordRing) Stats() *Statistics {
	if r == nil {
		return nil
	}
	return r.stats
}

// Close releases the storage and unregisters metrics. Idempotent.
func (r *RecordRing) Close() error {
	if r == nil {
		return nil
	}
	if r.shutdown() {
		r.storage = nil
	}
	return nil
}

func (r *RecordRing) check(method string) {
	if r == nil {
		panic(invalidHandle("RecordRing", method))
	}
	r.mustOpen(method)
}
