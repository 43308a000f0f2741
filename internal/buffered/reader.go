package buffered

import (
	"io"
)

var (
	_ io.ReadSeekCloser = (*Reader)(nil)
)

// Reader buffers reads from an underlying stream.
type Reader struct {
	rd   io.Reader
	mem  pooled
	r, w int
	err  error
}

// NewReader returns a Reader with the default buffer size.
func NewReader(rd io.Reader) *Reader {
	return NewReaderSize(rd, DefaultSize)
}

// NewReaderSize returns a Reader whose buffer holds size bytes.
func NewReaderSize(rd io.Reader, size int) *Reader {
	return &Reader{rd: rd, mem: borrow(size)}
}

// Size returns the buffer capacity.
func (b *Reader) Size() int {
	return len(b.mem.buf)
}

// Buffered returns the number of bytes read from the stream but not yet
// returned to the caller.
func (b *Reader) Buffered() int {
	return b.w - b.r
}

func (b *Reader) readErr() error {
	err := b.err
	b.err = nil
	return err
}

// Read reads into p. Reads at least as large as the buffer bypass it when
// the buffer is empty. At most one read is issued on the underlying stream.
func (b *Reader) Read(p []byte) (int, error) {
	if b.mem.buf == nil {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		if b.Buffered() > 0 {
			return 0, nil
		}
		return 0, b.readErr()
	}

	if b.r == b.w {
		if b.err != nil {
			return 0, b.readErr()
		}
		if len(p) >= len(b.mem.buf) {
			n, err := b.rd.Read(p)
			if n < 0 {
				panic(errNegativeRead)
			}
			return n, err
		}
		b.r, b.w = 0, 0
		n, err := b.rd.Read(b.mem.buf)
		if n < 0 {
			panic(errNegativeRead)
		}
		b.w = n
		b.err = err
		if n == 0 {
			return 0, b.readErr()
		}
	}

	n := copy(p, b.mem.buf[b.r:b.w])
	b.r += n
	return n, nil
}

// Discard drops any buffered bytes without touching the stream.
func (b *Reader) Discard() {
	b.r, b.w = 0, 0
	b.err = nil
}

// Seek repositions the underlying stream and discards the buffer. A
// relative seek is taken from the caller's position, which trails the
// stream by the buffered byte count.
func (b *Reader) Seek(offset int64, whence int) (int64, error) {
	s, ok := b.rd.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	if whence == io.SeekCurrent {
		offset -= int64(b.Buffered())
	}
	pos, err := s.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	b.Discard()
	return pos, nil
}

// Close returns the buffer to the pool and closes the underlying stream if
// it is an io.Closer.
func (b *Reader) Close() error {
	if b.mem.buf == nil {
		return nil
	}
	b.mem.giveBack()
	b.r, b.w = 0, 0
	return closeInner(b.rd)
}
