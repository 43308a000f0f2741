// Package buffered implements buffered readers and writers that, unlike
// bufio, can seek the stream underneath them.
package buffered

import (
	"bytes"
	"errors"
	"io"

	"github.com/akmistry/go-util/bufferpool"
)

// DefaultSize is the buffer size used when none is given.
const DefaultSize = 8 * 1024

var (
	// ErrNotSeekable is returned by Seek when the wrapped stream is not an
	// io.Seeker.
	ErrNotSeekable = errors.New("buffered: underlying stream does not seek")

	// ErrClosed is returned by operations on a closed reader or writer.
	ErrClosed = errors.New("buffered: closed")

	errNegativeRead = errors.New("buffered: reader returned negative count")
)

// flusher is implemented by streams with their own flush step, such as
// the write adapter.
type flusher interface {
	Flush() error
}

// pooled is a byte slice borrowed from the shared buffer pool.
type pooled struct {
	pb  *bytes.Buffer
	buf []byte
}

func borrow(size int) pooled {
	if size <= 0 {
		size = DefaultSize
	}
	pb := bufferpool.GetBuffer(size)
	return pooled{pb: pb, buf: pb.AvailableBuffer()[:size]}
}

func (p *pooled) giveBack() {
	if p.pb == nil {
		return
	}
	bufferpool.PutBuffer(p.pb)
	p.pb = nil
	p.buf = nil
}

func closeInner(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
