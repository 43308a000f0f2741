package adapter

import (
	"io"

	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/stats"
)

var (
	_ io.ReadSeekCloser = (*Reader)(nil)
)

// Reader exposes a foreign object with a "read" method as an io.Reader.
//
// When the object also defines "readinto", Read lends the caller's buffer to
// the foreign side as a writable view and no intermediate copy is made.
// Otherwise it falls back to "read" and copies the returned bytes.
type Reader struct {
	base
	seekable
	read     *foreign.Binding
	readInto *foreign.Binding
}

// NewReader probes h and builds a read adapter. The object must define
// "read"; "readinto" and "seek" are used when present. NewReader takes
// ownership of h and releases it on failure.
func NewReader(h *foreign.Handle, cfg Config) (*Reader, error) {
	caps, err := Probe(h, ModeRead)
	if err != nil {
		h.Release()
		return nil, err
	}
	b := newBase(h, cfg, "reader")
	logCapabilities(b.logger, "reader", caps)

	s, err := optionalSeeker(b, caps.Seek)
	if err != nil {
		h.Release()
		return nil, err
	}
	return &Reader{
		base:     b,
		seekable: s,
		read:     caps.Read,
		readInto: caps.ReadInto,
	}, nil
}

// ZeroCopy reports whether reads go through "readinto".
func (r *Reader) ZeroCopy() bool {
	return r.readInto != nil
}

// Read fills p from the foreign object. A call that transfers no bytes into
// a non-empty p reports io.EOF; an empty p returns immediately without a
// foreign call.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	var (
		n   int
		err error
	)
	if r.readInto != nil {
		n, err = r.readZeroCopy(p)
	} else {
		n, err = r.readCopy(p)
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	r.stats.IncCounter(stats.MetricBytesRead, int64(n))
	return n, nil
}

func (r *Reader) readZeroCopy(p []byte) (int, error) {
	view := foreign.NewWriteView(p)
	defer view.Release()

	v, err := r.call(r.readInto, view)
	if err != nil {
		return 0, err
	}
	n, ok := foreign.ToInt64(v)
	if !ok {
		return 0, unexpectedReturn(MethodReadInto, "expected an integer count, got %T", v)
	}
	if n < 0 || n > int64(len(p)) {
		return 0, unexpectedReturn(MethodReadInto, "count %d outside [0, %d]", n, len(p))
	}
	r.stats.IncCounter(stats.MetricZeroCopyReads, 1)
	return int(n), nil
}

func (r *Reader) readCopy(p []byte) (int, error) {
	v, err := r.call(r.read, len(p))
	if err != nil {
		return 0, err
	}
	data, ok := v.([]byte)
	if !ok {
		return 0, unexpectedReturn(MethodRead, "expected bytes, got %T", v)
	}
	r.stats.IncCounter(stats.MetricCopyReads, 1)

	n := copy(p, data)
	if len(data) > len(p) {
		// The surplus is lost; the foreign cursor has already moved past it.
		r.stats.IncCounter(stats.MetricReadOverruns, 1)
		r.logger.Warn("foreign read returned more bytes than requested",
			zap.Int("requested", len(p)),
			zap.Int("returned", len(data)),
		)
	}
	return n, nil
}
