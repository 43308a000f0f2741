package chunked

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/lazio/internal/chunkcache"
	"github.com/discochess/lazio/internal/codec"
	"github.com/discochess/lazio/internal/stats"
)

var (
	_ io.ReadSeeker = (*Decompressor)(nil)
	_ io.WriterTo   = (*Decompressor)(nil)
)

// Decompressor reads point records back from a chunked stream. It is an
// io.ReadSeeker over the decoded point bytes.
type Decompressor struct {
	r      io.ReadSeeker
	opts   Options
	logger *zap.Logger
	codec  codec.Codec
	cache  *chunkcache.Cache

	base    int64
	header  Header
	table   ChunkTable
	starts  []uint64 // first point of each chunk
	offsets []uint64 // chunk position relative to base

	pos uint64 // decoded byte position
}

// NewDecompressor opens the stream that starts at r's current position.
func NewDecompressor(r io.ReadSeeker, opts Options) (*Decompressor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating stream start: %w", err)
	}
	h, table, err := readHeaderAndTable(r, base)
	if err != nil {
		return nil, err
	}
	cd, err := opts.Codecs.ByID(h.Codec)
	if err != nil {
		return nil, err
	}
	cache, err := opts.newCache()
	if err != nil {
		return nil, err
	}

	d := &Decompressor{
		r:       r,
		opts:    opts,
		logger:  opts.Logger.Named("decompressor"),
		codec:   cd,
		cache:   cache,
		base:    base,
		header:  h,
		table:   table,
		starts:  make([]uint64, len(table)),
		offsets: make([]uint64, len(table)),
	}
	var point, offset uint64 = 0, HeaderSize
	for i, e := range table {
		d.starts[i] = point
		d.offsets[i] = offset
		point += e.PointCount
		offset += e.ByteCount
	}

	d.logger.Debug("opened stream",
		zap.Int("chunks", len(table)),
		zap.Uint64("points", h.TotalPoints),
		zap.String("codec", cd.Name()),
	)
	return d, nil
}

// Header returns the stream header.
func (d *Decompressor) Header() Header {
	return d.header
}

// Table returns the chunk table.
func (d *Decompressor) Table() ChunkTable {
	return d.table
}

// CacheStats returns decoded chunk cache statistics.
func (d *Decompressor) CacheStats() chunkcache.Stats {
	return d.cache.Stats()
}

func (d *Decompressor) size() uint64 {
	return d.header.TotalPoints * uint64(d.header.PointSize)
}

// chunkFor returns the index of the chunk holding point.
func (d *Decompressor) chunkFor(point uint64) int {
	return sort.Search(len(d.starts), func(i int) bool {
		return d.starts[i] > point
	}) - 1
}

// readRaw reads the compressed bytes of chunk i from the stream.
func (d *Decompressor) readRaw(i int) ([]byte, error) {
	if _, err := d.r.Seek(d.base+int64(d.offsets[i]), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to chunk %d: %w", i, err)
	}
	raw := make([]byte, d.table[i].ByteCount)
	if _, err := io.ReadFull(d.r, raw); err != nil {
		return nil, fmt.Errorf("reading chunk %d: %w", i, err)
	}
	return raw, nil
}

func (d *Decompressor) decode(i int, raw []byte) ([]byte, error) {
	want := d.table[i].PointCount * uint64(d.header.PointSize)
	out, err := d.codec.Decompress(make([]byte, 0, want), raw)
	if err != nil {
		return nil, fmt.Errorf("decompressing chunk %d: %w", i, err)
	}
	if uint64(len(out)) != want {
		return nil, fmt.Errorf("%w: chunk %d decodes to %d bytes, want %d", ErrCorruptTable, i, len(out), want)
	}
	d.opts.Stats.IncCounter(stats.MetricChunksRead, 1)
	return out, nil
}

// Chunk returns the decoded points of chunk i.
func (d *Decompressor) Chunk(i int) ([]byte, error) {
	if i < 0 || i >= len(d.table) {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrPointRange, i, len(d.table))
	}
	if data, ok := d.cache.Get(i); ok {
		return data, nil
	}
	raw, err := d.readRaw(i)
	if err != nil {
		return nil, err
	}
	data, err := d.decode(i, raw)
	if err != nil {
		return nil, err
	}
	d.cache.Set(i, data)
	return data, nil
}

// Read reads decoded point bytes from the current position.
func (d *Decompressor) Read(p []byte) (int, error) {
	if d.pos >= d.size() {
		return 0, io.EOF
	}
	pointSize := uint64(d.header.PointSize)
	i := d.chunkFor(d.pos / pointSize)
	data, err := d.Chunk(i)
	if err != nil {
		return 0, err
	}
	n := copy(p, data[d.pos-d.starts[i]*pointSize:])
	d.pos += uint64(n)
	return n, nil
}

// Seek moves within the decoded point bytes.
func (d *Decompressor) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(d.pos) + offset
	case io.SeekEnd:
		abs = int64(d.size()) + offset
	default:
		return 0, fmt.Errorf("chunked: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("%w: negative position %d", ErrPointRange, abs)
	}
	d.pos = uint64(abs)
	return abs, nil
}

// SeekPoint positions the reader at the start of point index. Seeking to
// TotalPoints is allowed and leaves the reader at EOF.
func (d *Decompressor) SeekPoint(index uint64) error {
	if index > d.header.TotalPoints {
		return fmt.Errorf("%w: point %d of %d", ErrPointRange, index, d.header.TotalPoints)
	}
	d.pos = index * uint64(d.header.PointSize)
	return nil
}

// WriteTo decodes every chunk from the current point onward and writes the
// points to w. Up to Workers chunks are decoded concurrently; compressed
// bytes are read from the stream one chunk at a time.
func (d *Decompressor) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for d.pos < d.size() {
		pointSize := uint64(d.header.PointSize)
		first := d.chunkFor(d.pos / pointSize)
		last := min(first+d.opts.Workers, len(d.table))

		decoded, err := d.decodeRange(first, last)
		if err != nil {
			return total, err
		}
		for j, data := range decoded {
			i := first + j
			if i == first {
				data = data[d.pos-d.starts[i]*pointSize:]
			}
			n, err := w.Write(data)
			total += int64(n)
			d.pos += uint64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// decodeRange returns decoded chunks [first, last), using the cache where
// possible.
func (d *Decompressor) decodeRange(first, last int) ([][]byte, error) {
	decoded := make([][]byte, last-first)
	raws := make([][]byte, last-first)
	for i := first; i < last; i++ {
		if data, ok := d.cache.Get(i); ok {
			decoded[i-first] = data
			continue
		}
		raw, err := d.readRaw(i)
		if err != nil {
			return nil, err
		}
		raws[i-first] = raw
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(d.opts.Workers)
	for j, raw := range raws {
		if raw == nil {
			continue
		}
		g.Go(func() error {
			data, err := d.decode(first+j, raw)
			if err != nil {
				return err
			}
			decoded[j] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for j, raw := range raws {
		if raw != nil {
			d.cache.Set(first+j, decoded[j])
		}
	}
	return decoded, nil
}

// DecompressAll returns every point in the stream.
func (d *Decompressor) DecompressAll() ([]byte, error) {
	if err := d.SeekPoint(0); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(min(d.size(), maxChunkBytes)))
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
