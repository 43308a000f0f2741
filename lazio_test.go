package lazio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/chunked"
	"github.com/discochess/lazio/internal/codec/noopcodec"
	"github.com/discochess/lazio/internal/remote"
	"github.com/discochess/lazio/internal/stats"
)

// memFile returns an empty memfs file.
func memFile(t *testing.T) billy.File {
	t.Helper()
	f, err := memfs.New().Create("points.lzck")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// makePoints returns n points of size bytes with distinct contents.
func makePoints(n, size int) []byte {
	out := make([]byte, n*size)
	for i := range out {
		out[i] = byte(i*7 + i/size)
	}
	return out
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestNew_UnknownCodec(t *testing.T) {
	_, err := New(WithCodec("brotli"))
	if err == nil {
		t.Fatal("New() error = nil, want error for unknown codec")
	}
}

func TestEngine_ReadWriteSeek(t *testing.T) {
	e := newEngine(t)
	f := memFile(t)
	if _, err := f.Write(make([]byte, 100)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}

	h := e.NewHandle(foreign.Wrap(f))
	defer h.Release()

	w, err := e.Writer(h.Clone())
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	defer w.Close()
	r, err := e.Reader(h.Clone())
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	defer r.Close()
	s, err := e.Seeker(h.Clone())
	if err != nil {
		t.Fatalf("Seeker() error = %v", err)
	}
	defer s.Close()

	if n, err := w.Write([]byte{1, 2, 3}); err != nil || n != 3 {
		t.Fatalf("Write() = %d, %v, want 3, nil", n, err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if pos, err := s.Seek(0, io.SeekStart); err != nil || pos != 0 {
		t.Fatalf("Seek(0, SeekStart) = %d, %v, want 0, nil", pos, err)
	}

	got := make([]byte, 3)
	if n, err := r.Read(got); err != nil || n != 3 {
		t.Fatalf("Read() = %d, %v, want 3, nil", n, err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Read() data = %v, want [1 2 3]", got)
	}

	if pos, err := s.Seek(-1, io.SeekEnd); err != nil || pos != 99 {
		t.Errorf("Seek(-1, SeekEnd) = %d, %v, want 99, nil", pos, err)
	}
}

func TestEngine_Writer_MissingCapability(t *testing.T) {
	e := newEngine(t)
	h := e.NewHandle(foreign.Wrap(bytes.NewReader([]byte("abc"))))
	defer h.Release()

	_, err := e.Writer(h.Clone())
	if !errors.Is(err, ErrMissingCapability) {
		t.Fatalf("Writer() error = %v, want ErrMissingCapability", err)
	}
	var ioErr *Error
	if !errors.As(err, &ioErr) {
		t.Fatalf("Writer() error = %T, want *Error", err)
	}
}

func TestEngine_CompressDecompress(t *testing.T) {
	tests := []struct {
		codec   string
		workers int
	}{
		{codec: "none", workers: 1},
		{codec: "gzip", workers: 1},
		{codec: "zstd", workers: 1},
		{codec: "zstd", workers: 4},
	}

	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			mem := stats.NewMemory()
			e := newEngine(t,
				WithCodec(tt.codec),
				WithPointSize(4),
				WithChunkSize(10),
				WithWorkers(tt.workers),
				WithBufferSize(64),
				WithStats(mem),
			)
			h := e.NewHandle(foreign.Wrap(memFile(t)))
			defer h.Release()

			points := makePoints(25, 4)
			info, err := e.Compress(context.Background(), h, points)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			if info.Codec != tt.codec {
				t.Errorf("Info.Codec = %q, want %q", info.Codec, tt.codec)
			}
			if info.Header.TotalPoints != 25 {
				t.Errorf("Info.Header.TotalPoints = %d, want 25", info.Header.TotalPoints)
			}
			if len(info.Table) != 3 {
				t.Errorf("len(Info.Table) = %d, want 3", len(info.Table))
			}
			if got := mem.Counter(stats.MetricChunksWritten); got != 3 {
				t.Errorf("chunks written = %d, want 3", got)
			}

			got, err := e.Decompress(context.Background(), h, 0)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(got, points) {
				t.Errorf("Decompress() returned %d bytes, want the %d compressed", len(got), len(points))
			}
			if h.Refs() != 1 {
				t.Errorf("Refs() = %d, want 1 after borrowing", h.Refs())
			}
		})
	}
}

func TestEngine_Compress_RequiresPointSize(t *testing.T) {
	e := newEngine(t)
	h := e.NewHandle(foreign.Wrap(memFile(t)))
	defer h.Release()

	_, err := e.Compress(context.Background(), h, []byte{1, 2, 3, 4})
	if !errors.Is(err, ErrNoPointSize) {
		t.Errorf("Compress() error = %v, want ErrNoPointSize", err)
	}
}

func TestEngine_DecompressRange(t *testing.T) {
	e := newEngine(t, WithCodec("gzip"), WithPointSize(4), WithChunkSize(10))
	h := e.NewHandle(foreign.Wrap(memFile(t)))
	defer h.Release()

	points := makePoints(25, 4)
	if _, err := e.Compress(context.Background(), h, points); err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	got, err := e.DecompressRange(context.Background(), h, 0, 8, 5)
	if err != nil {
		t.Fatalf("DecompressRange() error = %v", err)
	}
	if want := points[8*4 : 13*4]; !bytes.Equal(got, want) {
		t.Errorf("DecompressRange() = %v, want %v", got, want)
	}

	_, err = e.DecompressRange(context.Background(), h, 0, 20, 6)
	if !errors.Is(err, chunked.ErrPointRange) {
		t.Errorf("DecompressRange() past end error = %v, want ErrPointRange", err)
	}
}

func TestEngine_Append(t *testing.T) {
	e := newEngine(t, WithCodec("zstd"), WithPointSize(4), WithChunkSize(10), WithBufferSize(16))
	h := e.NewHandle(foreign.Wrap(memFile(t)))
	defer h.Release()

	first := makePoints(25, 4)
	if _, err := e.Compress(context.Background(), h, first); err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	more := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01}, 15)
	info, err := e.Append(context.Background(), h, 0, more)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if info.Header.TotalPoints != 40 {
		t.Errorf("Info.Header.TotalPoints = %d, want 40", info.Header.TotalPoints)
	}
	if len(info.Table) != 5 {
		t.Errorf("len(Info.Table) = %d, want 5", len(info.Table))
	}

	got, err := e.Decompress(context.Background(), h, 0)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if want := append(append([]byte{}, first...), more...); !bytes.Equal(got, want) {
		t.Errorf("Decompress() after Append returned %d bytes, want %d", len(got), len(want))
	}
}

func TestEngine_Info_NotAStream(t *testing.T) {
	e := newEngine(t)
	h := e.NewHandle(foreign.Wrap(bytes.NewReader(make([]byte, 64))))
	defer h.Release()

	_, err := e.Info(context.Background(), h, 0)
	if !errors.Is(err, chunked.ErrBadMagic) {
		t.Errorf("Info() error = %v, want ErrBadMagic", err)
	}
}

func TestEngine_Decompress_ImplausibleChunk(t *testing.T) {
	e := newEngine(t)
	h := chunked.Header{
		Version:     chunked.Version,
		Codec:       noopcodec.New().ID(),
		PointSize:   1,
		ChunkSize:   1,
		TableOffset: chunked.HeaderSize + 1,
		TotalPoints: 1 << 62,
	}
	buf, _ := h.MarshalBinary()
	stream := bytes.NewBuffer(buf)
	stream.WriteByte(0)
	chunked.ChunkTable{{PointCount: 1 << 62, ByteCount: 1}}.WriteTo(stream)

	fh := e.NewHandle(foreign.Wrap(bytes.NewReader(stream.Bytes())))
	defer fh.Release()

	if _, err := e.Decompress(context.Background(), fh, 0); !errors.Is(err, chunked.ErrCorruptTable) {
		t.Errorf("Decompress() error = %v, want ErrCorruptTable", err)
	}
	if _, err := e.DecompressRange(context.Background(), fh, 0, 0, 1); !errors.Is(err, chunked.ErrCorruptTable) {
		t.Errorf("DecompressRange() error = %v, want ErrCorruptTable", err)
	}
}

func TestEngine_ContextCanceled(t *testing.T) {
	e := newEngine(t, WithPointSize(4))
	h := e.NewHandle(foreign.Wrap(memFile(t)))
	defer h.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Compress(ctx, h, makePoints(1, 4)); !errors.Is(err, context.Canceled) {
		t.Errorf("Compress() error = %v, want context.Canceled", err)
	}
}

func TestEngine_OpenRemote_UnsupportedScheme(t *testing.T) {
	e := newEngine(t)
	_, err := e.OpenRemote(context.Background(), "ftp://bucket/points.lzck")
	if !errors.Is(err, remote.ErrUnsupportedScheme) {
		t.Errorf("OpenRemote() error = %v, want ErrUnsupportedScheme", err)
	}
}

func TestEngine_Close(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}

	h := e.NewHandle(foreign.Wrap(memFile(t)))
	defer h.Release()
	if _, err := e.Reader(h.Clone()); !errors.Is(err, ErrClosed) {
		t.Errorf("Reader() after Close error = %v, want ErrClosed", err)
	}
	if _, err := e.Decompress(context.Background(), h, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Decompress() after Close error = %v, want ErrClosed", err)
	}
}
