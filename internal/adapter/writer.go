package adapter

import (
	"io"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/stats"
)

var (
	_ io.WriteSeeker = (*Writer)(nil)
	_ io.Closer      = (*Writer)(nil)
)

// Writer exposes a foreign object with "write" and "flush" methods as an
// io.Writer.
type Writer struct {
	base
	seekable
	write *foreign.Binding
	flush *foreign.Binding
}

// NewWriter probes h and builds a write adapter. The object must define
// "write" and "flush"; "seek" is used when present.
// NewWriter takes ownership of h and releases it on failure.
func NewWriter(h *foreign.Handle, cfg Config) (*Writer, error) {
	caps, err := Probe(h, ModeWrite)
	if err != nil {
		h.Release()
		return nil, err
	}
	b := newBase(h, cfg, "writer")
	logCapabilities(b.logger, "writer", caps)

	s, err := optionalSeeker(b, caps.Seek)
	if err != nil {
		h.Release()
		return nil, err
	}
	return &Writer{
		base:     b,
		seekable: s,
		write:    caps.Write,
		flush:    caps.Flush,
	}, nil
}

// Write passes p to the foreign "write" as a read-only view. It makes a
// single foreign call; if fewer than len(p) bytes were accepted it returns
// the count together with io.ErrShortWrite.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	view := foreign.NewReadView(p)
	defer view.Release()

	v, err := w.call(w.write, view)
	if err != nil {
		return 0, err
	}
	n, ok := foreign.ToInt64(v)
	if !ok {
		return 0, unexpectedReturn(MethodWrite, "expected an integer count, got %T", v)
	}
	if n < 0 || n > int64(len(p)) {
		return 0, unexpectedReturn(MethodWrite, "count %d outside [0, %d]", n, len(p))
	}
	w.stats.IncCounter(stats.MetricBytesWritten, n)
	if int(n) < len(p) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}

// Flush calls the foreign "flush" method once.
func (w *Writer) Flush() error {
	if _, err := w.call(w.flush); err != nil {
		return err
	}
	w.stats.IncCounter(stats.MetricFlushes, 1)
	return nil
}
