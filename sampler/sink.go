package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/c360/ringbuf/errors"
	"github.com/c360/ringbuf/pkg/retry"
)

// Sink receives drained batches. A batch is either written in full or the
// error is returned; the sampler keeps the records buffered until Write
// succeeds.
type Sink interface {
	Write(ctx context.Context, batch []Sample) error
	Close() error
}

// LineSink writes one JSON object per sample. Each batch is encoded in
// memory and handed to the writer in a single Write call.
type LineSink struct {
	mu     sync.Mutex
	dst    io.Writer
	buf    bytes.Buffer
	enc    *json.Encoder // writes into buf, never into dst
	closer io.Closer     // nil when the underlying writer is not ours
	closed bool
}

// NewLineSink wraps w. Close does not close w.
func NewLineSink(w io.Writer) *LineSink {
	s := &LineSink{dst: w}
	s.enc = json.NewEncoder(&s.buf)
	return s
}

// OpenSink returns a LineSink appending to path, or writing to stdout when
// path is empty.
func OpenSink(path string) (*LineSink, error) {
	if path == "" {
		return NewLineSink(os.Stdout), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.WrapFatal(err, "LineSink", "Open", "open "+path)
	}

	s := NewLineSink(f)
	s.closer = f
	return s, nil
}

// Write encodes the batch and writes it in one call. A failed write leaves
// nothing buffered, so a retry sends the whole batch again.
func (s *LineSink) Write(ctx context.Context, batch []Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return retry.NonRetryable(errors.WrapFatal(errors.ErrSinkClosed, "LineSink", "Write", "write batch"))
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrSinkTimeout, err), "LineSink", "Write", "wait for sink")
		}
		return err
	}

	s.buf.Reset()
	for i := range batch {
		if err := s.enc.Encode(&batch[i]); err != nil {
			return retry.NonRetryable(errors.WrapInvalid(err, "LineSink", "Write", "encode sample"))
		}
	}
	if s.buf.Len() == 0 {
		return nil
	}
	if _, err := s.dst.Write(s.buf.Bytes()); err != nil {
		return errors.WrapTransient(err, "LineSink", "Write", "write batch")
	}
	return nil
}

// Close closes the file the sink owns. Idempotent.
func (s *LineSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return errors.WrapTransient(err, "LineSink", "Close", "close file")
	}
	return nil
}
