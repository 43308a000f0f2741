// Package lazio reads and writes chunked point streams through caller
// supplied file objects.
//
// A file object only has to provide a few named methods (read, write,
// seek, flush and optionally readinto). Any Go file-like value can be
// exposed that way with foreign.Wrap.
//
// Example usage:
//
//	engine, err := lazio.New(lazio.WithPointSize(20))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	f, _ := os.Create("points.lzck")
//	h := engine.NewHandle(foreign.Wrap(f), foreign.OnRelease(f.Close))
//	defer h.Release()
//
//	info, err := engine.Compress(ctx, h, points)
package lazio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/buffered"
	"github.com/discochess/lazio/internal/chunked"
	"github.com/discochess/lazio/internal/codec"
	"github.com/discochess/lazio/internal/codec/zstdcodec"
	"github.com/discochess/lazio/internal/dual"
	"github.com/discochess/lazio/internal/remote"
	"github.com/discochess/lazio/internal/remote/gcsfile"
	"github.com/discochess/lazio/internal/remote/s3file"
	"github.com/discochess/lazio/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("lazio: engine closed")

	// ErrNoPointSize indicates Compress was called without WithPointSize.
	ErrNoPointSize = errors.New("lazio: point size not configured")
)

// Adapter error kinds, matched with errors.Is. Every adapter failure is an
// *Error carrying one of them.
var (
	ErrMissingCapability    = adapter.ErrMissingCapability
	ErrForeignCallFailed    = adapter.ErrForeignCallFailed
	ErrUnexpectedReturnType = adapter.ErrUnexpectedReturnType
	ErrInvalidWhence        = adapter.ErrInvalidWhence
)

// Error is the I/O error surfaced by adapters.
type Error = adapter.Error

// Info describes a stored stream.
type Info struct {
	Header chunked.Header
	Table  chunked.ChunkTable
	Codec  string
}

// Engine builds adapters over foreign file objects and runs the chunked
// codec through them. An Engine is safe for concurrent use, but a single
// handle must not be used from two goroutines at once.
type Engine struct {
	opts   options
	stats  stats.Collector
	logger *zap.Logger
	codecs *codec.Registry
	codec  codec.Codec
	closed atomic.Bool
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	codecs, err := chunked.DefaultCodecs()
	if err != nil {
		return nil, err
	}
	cd, err := codecs.ByName(cfg.codec)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:   cfg,
		stats:  cfg.stats,
		logger: cfg.logger,
		codecs: codecs,
		codec:  cd,
	}

	e.logger.Debug("engine initialized",
		zap.String("codec", cd.Name()),
		zap.Int("pointSize", cfg.pointSize),
		zap.Int("chunkSize", cfg.chunkSize),
		zap.Int("workers", cfg.workers),
		zap.Int("bufferSize", cfg.bufferSize),
	)
	return e, nil
}

// NewHandle creates the owning handle for obj in the engine's runtime.
func (e *Engine) NewHandle(obj foreign.Object, opts ...foreign.HandleOption) *foreign.Handle {
	return foreign.NewHandle(e.opts.runtime, obj, opts...)
}

func (e *Engine) adapterConfig() adapter.Config {
	return adapter.Config{Logger: e.logger.Named("adapter"), Stats: e.stats}
}

func (e *Engine) chunkedOptions() chunked.Options {
	return chunked.Options{
		Codec:     e.codec,
		Codecs:    e.codecs,
		PointSize: e.opts.pointSize,
		ChunkSize: e.opts.chunkSize,
		Workers:   e.opts.workers,
		CacheSize: e.opts.cacheSize,
		Logger:    e.logger.Named("chunked"),
		Stats:     e.stats,
	}
}

// accept rejects new adapters once the engine is closed, releasing h since
// the adapter would have owned it.
func (e *Engine) accept(h *foreign.Handle) error {
	if e.closed.Load() {
		h.Release()
		return ErrClosed
	}
	return nil
}

// Reader returns an unbuffered read adapter. It takes ownership of h.
func (e *Engine) Reader(h *foreign.Handle) (*adapter.Reader, error) {
	if err := e.accept(h); err != nil {
		return nil, err
	}
	return adapter.NewReader(h, e.adapterConfig())
}

// Writer returns an unbuffered write adapter. It takes ownership of h.
func (e *Engine) Writer(h *foreign.Handle) (*adapter.Writer, error) {
	if err := e.accept(h); err != nil {
		return nil, err
	}
	return adapter.NewWriter(h, e.adapterConfig())
}

// Seeker returns a seek adapter. It takes ownership of h.
func (e *Engine) Seeker(h *foreign.Handle) (*adapter.Seeker, error) {
	if err := e.accept(h); err != nil {
		return nil, err
	}
	return adapter.NewSeeker(h, e.adapterConfig())
}

// BufferedReader returns a buffered read adapter. It takes ownership of h.
func (e *Engine) BufferedReader(h *foreign.Handle) (*buffered.Reader, error) {
	r, err := e.Reader(h)
	if err != nil {
		return nil, err
	}
	return buffered.NewReaderSize(r, e.opts.bufferSize), nil
}

// BufferedWriter returns a buffered write adapter. It takes ownership of h.
func (e *Engine) BufferedWriter(h *foreign.Handle) (*buffered.Writer, error) {
	w, err := e.Writer(h)
	if err != nil {
		return nil, err
	}
	return buffered.NewWriterSize(w, e.opts.bufferSize), nil
}

// ReadWriter returns a dual-buffered adapter that reads and writes the
// same object. It takes ownership of h.
func (e *Engine) ReadWriter(h *foreign.Handle) (*dual.ReadWriter, error) {
	if err := e.accept(h); err != nil {
		return nil, err
	}
	return dual.New(h, e.adapterConfig(), e.opts.bufferSize)
}

// Compress writes points as a new stream at h's current position and
// returns the stored stream's Info. h is borrowed; the caller keeps its
// reference.
func (e *Engine) Compress(ctx context.Context, h *foreign.Handle, points []byte) (Info, error) {
	if err := e.begin(ctx); err != nil {
		return Info{}, err
	}
	if e.opts.pointSize <= 0 {
		return Info{}, ErrNoPointSize
	}

	w, err := e.BufferedWriter(h.Clone())
	if err != nil {
		return Info{}, err
	}
	base, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return Info{}, errors.Join(fmt.Errorf("locating stream start: %w", err), w.Close())
	}
	c, err := chunked.NewCompressor(w, e.chunkedOptions())
	if err != nil {
		return Info{}, errors.Join(err, w.Close())
	}
	if _, err := c.Write(points); err != nil {
		return Info{}, errors.Join(fmt.Errorf("compressing points: %w", err), w.Close())
	}
	if err := c.Close(); err != nil {
		return Info{}, errors.Join(fmt.Errorf("finishing stream: %w", err), w.Close())
	}
	if err := w.Close(); err != nil {
		return Info{}, fmt.Errorf("flushing stream: %w", err)
	}

	e.logger.Info("compressed points",
		zap.Uint64("points", c.Points()),
		zap.String("codec", e.codec.Name()),
	)
	return e.Info(ctx, h, base)
}

// Decompress reads the whole stream that starts at offset in h. h is
// borrowed.
func (e *Engine) Decompress(ctx context.Context, h *foreign.Handle, offset int64) ([]byte, error) {
	if err := e.begin(ctx); err != nil {
		return nil, err
	}
	d, r, err := e.openStream(h, offset)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	points, err := d.DecompressAll()
	if err != nil {
		return nil, fmt.Errorf("decompressing stream: %w", err)
	}
	return points, nil
}

// DecompressRange reads count points starting at point index first from
// the stream at offset. Only the chunks holding those points are decoded.
// h is borrowed.
func (e *Engine) DecompressRange(ctx context.Context, h *foreign.Handle, offset int64, first, count uint64) ([]byte, error) {
	if err := e.begin(ctx); err != nil {
		return nil, err
	}
	d, r, err := e.openStream(h, offset)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	total := d.Header().TotalPoints
	if first > total || count > total-first {
		return nil, fmt.Errorf("%w: points [%d, %d) of %d", chunked.ErrPointRange, first, first+count, total)
	}
	if err := d.SeekPoint(first); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if _, err := io.CopyN(&out, d, int64(count*uint64(d.Header().PointSize))); err != nil {
		return nil, fmt.Errorf("reading points: %w", err)
	}
	return out.Bytes(), nil
}

// Append adds points to the end of the stream that starts at offset in h,
// using the dual-buffered adapter. h is borrowed.
func (e *Engine) Append(ctx context.Context, h *foreign.Handle, offset int64, points []byte) (Info, error) {
	if err := e.begin(ctx); err != nil {
		return Info{}, err
	}

	rw, err := e.ReadWriter(h.Clone())
	if err != nil {
		return Info{}, err
	}
	if _, err := rw.Seek(offset, io.SeekStart); err != nil {
		return Info{}, errors.Join(fmt.Errorf("seeking to stream: %w", err), rw.Close())
	}
	a, err := chunked.NewAppender(rw, e.chunkedOptions())
	if err != nil {
		return Info{}, errors.Join(err, rw.Close())
	}
	before := a.Points()
	if _, err := a.Write(points); err != nil {
		return Info{}, errors.Join(fmt.Errorf("appending points: %w", err), rw.Close())
	}
	if err := a.Close(); err != nil {
		return Info{}, errors.Join(fmt.Errorf("finishing stream: %w", err), rw.Close())
	}
	if err := rw.Close(); err != nil {
		return Info{}, fmt.Errorf("flushing stream: %w", err)
	}

	e.logger.Info("appended points",
		zap.Uint64("before", before),
		zap.Uint64("after", a.Points()),
	)
	return e.Info(ctx, h, offset)
}

// Info reads the header and chunk table of the stream at offset. h is
// borrowed.
func (e *Engine) Info(ctx context.Context, h *foreign.Handle, offset int64) (Info, error) {
	if err := e.begin(ctx); err != nil {
		return Info{}, err
	}
	d, r, err := e.openStream(h, offset)
	if err != nil {
		return Info{}, err
	}
	defer r.Close()

	hdr := d.Header()
	name := "unknown"
	if cd, err := e.codecs.ByID(hdr.Codec); err == nil {
		name = cd.Name()
	}
	return Info{Header: hdr, Table: d.Table(), Codec: name}, nil
}

// OpenRemote opens an s3:// or gs:// object as a read-only handle. The
// handle closes the remote client when released.
func (e *Engine) OpenRemote(ctx context.Context, rawURL string) (*foreign.Handle, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	loc, err := remote.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var rr remote.RangeReader
	switch loc.Scheme {
	case "s3":
		rr, err = s3file.New(ctx, loc.Bucket, loc.Key)
	case "gs":
		rr, err = gcsfile.New(ctx, loc.Bucket, loc.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rawURL, err)
	}

	f, err := remote.NewFile(ctx, rr)
	if err != nil {
		rr.Close()
		return nil, fmt.Errorf("opening %s: %w", rawURL, err)
	}
	return e.NewHandle(foreign.Wrap(f, foreign.WithSeekConstants(e.opts.runtime)), foreign.OnRelease(f.Close)), nil
}

// Close releases codec resources. After Close, the engine should not be
// used.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if zc, err := e.codecs.ByID(codec.IDZstd); err == nil {
		if c, ok := zc.(*zstdcodec.Codec); ok {
			return c.Close()
		}
	}
	return nil
}

func (e *Engine) begin(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	// Check for cancellation before starting.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

// openStream builds a buffered reader over a clone of h positioned at
// offset and opens the stream there. The caller closes the reader.
func (e *Engine) openStream(h *foreign.Handle, offset int64) (*chunked.Decompressor, *buffered.Reader, error) {
	r, err := e.BufferedReader(h.Clone())
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("seeking to stream: %w", err)
	}
	d, err := chunked.NewDecompressor(r, e.chunkedOptions())
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return d, r, nil
}
