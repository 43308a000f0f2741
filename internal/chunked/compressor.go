package chunked

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/lazio/internal/stats"
)

var (
	_ io.WriteCloser = (*Compressor)(nil)
)

type flusher interface {
	Flush() error
}

// Compressor writes point records as a chunked stream.
//
// Points are gathered until a batch of Workers full chunks is ready; the
// batch is compressed concurrently and then written in order. Close writes
// the remaining points, the chunk table and the final header.
type Compressor struct {
	w      io.WriteSeeker
	opts   Options
	logger *zap.Logger

	base    int64  // stream position of the header
	offset  uint64 // end of the last chunk, relative to base
	table   ChunkTable
	pending []byte
	closed  bool
}

// NewCompressor starts a new stream at w's current position.
func NewCompressor(w io.WriteSeeker, opts Options) (*Compressor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if opts.PointSize <= 0 {
		return nil, errNoPointSize
	}
	if uint64(opts.PointSize)*uint64(opts.ChunkSize) > maxChunkBytes {
		return nil, fmt.Errorf("%w: %d points of %d bytes", errChunkTooBig, opts.ChunkSize, opts.PointSize)
	}

	base, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating stream start: %w", err)
	}
	c := &Compressor{
		w:      w,
		opts:   opts,
		logger: opts.Logger.Named("compressor"),
		base:   base,
		offset: HeaderSize,
	}
	// Placeholder; rewritten with the table offset on Close.
	if err := c.writeHeader(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewAppender reopens the stream that starts at rw's current position so
// more points can be added. New chunks overwrite the old chunk table, and
// Close writes the merged table. The codec, point size and chunk size come
// from the existing header.
func NewAppender(rw io.ReadWriteSeeker, opts Options) (*Compressor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	base, err := rw.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating stream start: %w", err)
	}
	h, table, err := readHeaderAndTable(rw, base)
	if err != nil {
		return nil, err
	}
	cd, err := opts.Codecs.ByID(h.Codec)
	if err != nil {
		return nil, err
	}
	opts.Codec = cd
	opts.PointSize = int(h.PointSize)
	opts.ChunkSize = int(h.ChunkSize)

	if _, err := rw.Seek(base+int64(h.TableOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to chunk table: %w", err)
	}
	c := &Compressor{
		w:      rw,
		opts:   opts,
		logger: opts.Logger.Named("appender"),
		base:   base,
		offset: h.TableOffset,
		table:  table,
	}
	c.logger.Debug("opened stream for append",
		zap.Int("chunks", len(table)),
		zap.Uint64("points", h.TotalPoints),
		zap.String("codec", cd.Name()),
	)
	return c, nil
}

func (c *Compressor) header() Header {
	return Header{
		Version:     Version,
		Codec:       c.opts.Codec.ID(),
		PointSize:   uint32(c.opts.PointSize),
		ChunkSize:   uint32(c.opts.ChunkSize),
		TableOffset: c.offset,
		TotalPoints: c.table.Points(),
	}
}

func (c *Compressor) writeHeader() error {
	buf, _ := c.header().MarshalBinary()
	if err := writeFull(c.w, buf); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

func (c *Compressor) chunkBytes() int {
	return c.opts.PointSize * c.opts.ChunkSize
}

// Write buffers point records. p need not end on a point boundary, but the
// total written before Close must.
func (c *Compressor) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	c.pending = append(c.pending, p...)

	batch := c.chunkBytes() * c.opts.Workers
	if len(c.pending) >= batch {
		full := len(c.pending) - len(c.pending)%c.chunkBytes()
		if err := c.encode(c.pending[:full]); err != nil {
			return 0, err
		}
		c.pending = append(c.pending[:0], c.pending[full:]...)
	}
	return len(p), nil
}

// encode compresses data chunk by chunk and writes the chunks in order.
func (c *Compressor) encode(data []byte) error {
	size := c.chunkBytes()
	var chunks [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}

	out := make([][]byte, len(chunks))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(c.opts.Workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			b, err := c.opts.Codec.Compress(nil, chunk)
			if err != nil {
				return fmt.Errorf("compressing chunk %d: %w", len(c.table)+i, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, b := range out {
		if err := writeFull(c.w, b); err != nil {
			return fmt.Errorf("writing chunk %d: %w", len(c.table), err)
		}
		points := uint64(len(chunks[i]) / c.opts.PointSize)
		c.table = append(c.table, ChunkTableEntry{PointCount: points, ByteCount: uint64(len(b))})
		c.offset += uint64(len(b))

		c.opts.Stats.IncCounter(stats.MetricChunksWritten, 1)
		c.opts.Stats.IncCounter(stats.MetricPointsWritten, int64(points))
	}
	return nil
}

// Points returns the number of points committed to chunks so far.
func (c *Compressor) Points() uint64 {
	return c.table.Points()
}

// Close writes any remaining points as a final, possibly short, chunk,
// then the chunk table and the header. The stream is left positioned at
// its end. Close does not close the underlying writer.
func (c *Compressor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if len(c.pending)%c.opts.PointSize != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrPointSize, len(c.pending)%c.opts.PointSize)
	}
	if len(c.pending) > 0 {
		if err := c.encode(c.pending); err != nil {
			return err
		}
		c.pending = nil
	}

	tableLen, err := c.table.WriteTo(c.w)
	if err != nil {
		return fmt.Errorf("writing chunk table: %w", err)
	}
	if _, err := c.w.Seek(c.base, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to header: %w", err)
	}
	if err := c.writeHeader(); err != nil {
		return err
	}
	if _, err := c.w.Seek(c.base+int64(c.offset)+tableLen, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to end: %w", err)
	}
	if f, ok := c.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing stream: %w", err)
		}
	}

	c.logger.Debug("closed stream",
		zap.Int("chunks", len(c.table)),
		zap.Uint64("points", c.table.Points()),
		zap.Uint64("table_offset", c.offset),
	)
	return nil
}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
