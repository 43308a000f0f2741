// Package dual reads and writes one foreign object through two independent
// buffers that share a single cursor.
package dual

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/buffered"
)

var (
	_ io.ReadWriteSeeker = (*ReadWriter)(nil)
	_ io.Closer          = (*ReadWriter)(nil)
)

// ReadWriter couples a buffered reader and a buffered writer over clones
// of the same handle.
//
// Reads and writes are not synchronized with each other: bytes buffered on
// one side are invisible to the other until a Seek or Flush. Seek brings
// both sides back to the same absolute position.
type ReadWriter struct {
	r      *buffered.Reader
	w      *buffered.Writer
	logger *zap.Logger
}

// New builds a ReadWriter over h. The object must define read, write,
// flush and seek. Each buffer holds size bytes. New takes ownership of h.
func New(h *foreign.Handle, cfg adapter.Config, size int) (*ReadWriter, error) {
	if _, err := adapter.Probe(h, adapter.ModeRead|adapter.ModeWrite|adapter.ModeSeek); err != nil {
		h.Release()
		return nil, err
	}

	ar, err := adapter.NewReader(h.Clone(), cfg)
	if err != nil {
		h.Release()
		return nil, err
	}
	aw, err := adapter.NewWriter(h, cfg)
	if err != nil {
		ar.Close()
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadWriter{
		r:      buffered.NewReaderSize(ar, size),
		w:      buffered.NewWriterSize(aw, size),
		logger: logger.Named("dual"),
	}, nil
}

// Read reads through the read-side buffer.
func (rw *ReadWriter) Read(p []byte) (int, error) {
	return rw.r.Read(p)
}

// Write writes through the write-side buffer.
func (rw *ReadWriter) Write(p []byte) (int, error) {
	return rw.w.Write(p)
}

// Flush forces pending writes to the foreign object and flushes it.
func (rw *ReadWriter) Flush() error {
	return rw.w.Flush()
}

// Seek resolves the request to one absolute position and moves both
// buffers there.
//
// The write side seeks first, which commits its pending bytes and moves the
// shared cursor. The read side is then sent to the resulting absolute
// position, which also drops its cached bytes. A relative request is never
// applied twice.
func (rw *ReadWriter) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		// The read side has pulled bytes the caller has not consumed yet,
		// so the shared cursor is ahead of the logical position.
		offset -= int64(rw.r.Buffered())
	}

	pos, err := rw.w.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("seeking write side: %w", err)
	}
	if _, err := rw.r.Seek(pos, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seeking read side to %d: %w", pos, err)
	}

	rw.logger.Debug("synchronized buffers",
		zap.Int64("offset", offset),
		zap.Int("whence", whence),
		zap.Int64("position", pos),
	)
	return pos, nil
}

// Close flushes pending writes and releases both references to the
// foreign object.
func (rw *ReadWriter) Close() error {
	return errors.Join(rw.w.Close(), rw.r.Close())
}
