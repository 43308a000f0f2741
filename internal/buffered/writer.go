package buffered

import (
	"io"
)

var (
	_ io.WriteSeeker = (*Writer)(nil)
	_ io.Closer      = (*Writer)(nil)
)

// Writer buffers writes to an underlying stream.
//
// After a write error the Writer keeps returning that error, as bufio.Writer
// does; bytes that were not accepted stay buffered.
type Writer struct {
	wr  io.Writer
	mem pooled
	n   int
	err error
}

// NewWriter returns a Writer with the default buffer size.
func NewWriter(wr io.Writer) *Writer {
	return NewWriterSize(wr, DefaultSize)
}

// NewWriterSize returns a Writer whose buffer holds size bytes.
func NewWriterSize(wr io.Writer, size int) *Writer {
	return &Writer{wr: wr, mem: borrow(size)}
}

// Size returns the buffer capacity.
func (b *Writer) Size() int {
	return len(b.mem.buf)
}

// Buffered returns the number of bytes written but not yet passed on.
func (b *Writer) Buffered() int {
	return b.n
}

// Available returns how many bytes fit before the buffer must drain.
func (b *Writer) Available() int {
	return len(b.mem.buf) - b.n
}

// Write buffers p, draining to the stream as the buffer fills. Writes
// larger than the buffer go straight through when the buffer is empty.
func (b *Writer) Write(p []byte) (int, error) {
	if b.mem.buf == nil {
		return 0, ErrClosed
	}
	nn := 0
	for len(p) > b.Available() && b.err == nil {
		var n int
		if b.n == 0 {
			n, b.err = b.wr.Write(p)
		} else {
			n = copy(b.mem.buf[b.n:], p)
			b.n += n
			b.drain()
		}
		nn += n
		p = p[n:]
	}
	if b.err != nil {
		return nn, b.err
	}
	n := copy(b.mem.buf[b.n:], p)
	b.n += n
	return nn + n, nil
}

// drain writes the buffer to the stream without flushing the stream itself.
func (b *Writer) drain() error {
	if b.err != nil {
		return b.err
	}
	if b.n == 0 {
		return nil
	}
	n, err := b.wr.Write(b.mem.buf[:b.n])
	if n < b.n && err == nil {
		err = io.ErrShortWrite
	}
	if err != nil {
		if n > 0 && n < b.n {
			copy(b.mem.buf[:b.n-n], b.mem.buf[n:b.n])
		}
		b.n -= n
		b.err = err
		return err
	}
	b.n = 0
	return nil
}

// Flush writes any buffered bytes and then flushes the stream, if it has
// a Flush method.
func (b *Writer) Flush() error {
	if b.mem.buf == nil {
		return ErrClosed
	}
	if err := b.drain(); err != nil {
		return err
	}
	if f, ok := b.wr.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Seek writes out any buffered bytes, then repositions the stream.
func (b *Writer) Seek(offset int64, whence int) (int64, error) {
	s, ok := b.wr.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	if err := b.drain(); err != nil {
		return 0, err
	}
	return s.Seek(offset, whence)
}

// Close flushes, returns the buffer to the pool and closes the underlying
// stream if it is an io.Closer.
func (b *Writer) Close() error {
	if b.mem.buf == nil {
		return nil
	}
	err := b.Flush()
	b.mem.giveBack()
	b.n = 0
	if cerr := closeInner(b.wr); err == nil {
		err = cerr
	}
	return err
}
