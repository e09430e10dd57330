package buffer

// Buffer is the contract of Ring[T], for code that wants to accept a ring or a test double.
type Buffer[T any] interface {
	// Write appends an item. Returns errors.ErrFull when no slot is free.
	Write(item T) error

	// Read removes the oldest item into *dst, or drops it when dst is nil.
	// Returns errors.ErrEmpty when there is nothing to read.
	Read(dst *T) error

	// Peek returns a view of the i-th oldest item without removing it.
	// Returns errors.ErrOutOfRange unless 0 <= i < Size().
	Peek(i int) (*T, error)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at maximum capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close releases the buffer storage.
	Close() error
}
