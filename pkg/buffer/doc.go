// Package buffer provides fixed-capacity ring buffers with O(1) operations, built-in
// statistics and optional Prometheus metrics.
//
// # Overview
//
// A ring allocates its storage once, at construction, and never grows. Writes append at
// the write cursor, reads consume at the read cursor, and both cursors wrap modulo the
// slot count. Two forms share the same arithmetic:
//
//   - Ring[T]: generic records; the element type is checked by the compiler
//   - RecordRing: opaque byte records of a size fixed at construction
//
// # Quick Start
//
//	ring, err := buffer.New[Sample](1024)
//	if err != nil {
//		return err
//	}
//	defer ring.Close()
//
//	if err := ring.Write(s); errors.Is(err, errors.ErrFull) {
//		// back-pressure: the caller decides
//	}
//
//	var out Sample
//	if err := ring.Read(&out); err == nil {
//		process(out)
//	}
//
// Byte records:
//
//	rr, err := buffer.NewRecordRing(24, 4096, buffer.WithMetrics(registry, "sensor"))
//	err = rr.Write(frame[:24])
//	view, err := rr.Peek(0)
//
// # Full and Empty
//
// A ring created with capacity N owns N+1 slots. One slot always stays unused so that the
// cursors alone tell the states apart:
//
//   - empty: in == out
//   - full: (in+1) % slots == out
//   - size: (slots + in - out) % slots
//
// Capacity 0 is legal. Such a ring has a single slot and is empty and full at once: every
// Write returns ErrFull and every Read returns ErrEmpty.
//
// # Reading, Dropping and Peeking
//
// Read(dst) copies the oldest record out. Read(nil) drops it without a copy, which is how
// callers implement drop-oldest on top of a ring that itself never evicts.
//
// Peek(i) returns a view of the i-th oldest record (0 is the next Read) without moving
// any cursor. The view aliases ring storage and is valid until the next Write, Clear or
// Close touches that slot.
//
// # Ownership and Concurrency
//
// Rings do no locking. One goroutine owns a ring and makes every call; sharing one
// requires external synchronisation. Statistics counters are atomic, so reading Stats
// from a monitoring goroutine is fine.
//
// Write, Read, Peek, Size, IsEmpty and IsFull never allocate and never block. They report
// outcomes through bare sentinel errors (ErrFull, ErrEmpty, ErrOutOfRange) so the steady
// state stays allocation-free.
//
// # Invalid Handles
//
// Using a nil or closed ring is a programming error. Methods with an error result return
// errors.ErrInvalidHandle; IsEmpty, IsFull, Size, Capacity and Clear panic with it. Close
// itself is idempotent.
//
// # Observability
//
// Statistics are always collected (writes, reads, discards, peeks, full rejections,
// empty reads, clears, current and maximum size). WithMetrics additionally exports them
// under the ringbuf_buffer_* metric family labelled with the ring name. Close unregisters
// the ring's metrics so the name can be reused.
//
// Rings log creation, Clear and Close at debug level through slog; nothing is logged on
// the hot path.
//
// # Clearing
//
// Clear resets both cursors and leaves storage untouched, so it is O(1). Records holding
// pointers therefore stay reachable until overwritten; build the ring WithReleaseSlots to
// zero slots on Read and Clear instead.
package buffer
