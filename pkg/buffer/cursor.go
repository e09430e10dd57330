package buffer

import "golang.org/x/sys/cpu"

// cursors holds the read and write positions over a fixed number of slots.
// One slot is never filled so that in == out always means empty.
//
// The padding keeps the producer-side and consumer-side cursors on separate
// cache lines when a ring is handed between pipeline stages.
type cursors struct {
	out int // next slot to read

	_ cpu.CacheLinePad

	in int // next slot to write

	_ cpu.CacheLinePad

	slots int // capacity + 1, never zero
}

func newCursors(slots int) cursors {
	return cursors{slots: slots}
}

func (c *cursors) advance(i int) int {
	return (i + 1) % c.slots
}

func (c *cursors) empty() bool {
	return c.in == c.out
}

func (c *cursors) full() bool {
	return c.advance(c.in) == c.out
}

func (c *cursors) size() int {
	return (c.slots + c.in - c.out) % c.slots
}

func (c *cursors) capacity() int {
	return c.slots - 1
}

// physical maps a logical index in [0, size()) to its slot. The caller checks
// the range; i+out cannot overflow since both are below slots.
func (c *cursors) physical(i int) int {
	return (i + c.out) % c.slots
}

func (c *cursors) reset() {
	c.in, c.out = 0, 0
}
