package micro

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/buffered"
	"github.com/discochess/lazio/internal/chunked"
)

const dataSize = 1 << 20

func newFile(b *testing.B, size int) billy.File {
	b.Helper()
	f, err := memfs.New().Create("bench.bin")
	if err != nil {
		b.Fatalf("creating file: %v", err)
	}
	if _, err := f.Write(make([]byte, size)); err != nil {
		b.Fatalf("writing file: %v", err)
	}
	return f
}

func benchmarkRead(b *testing.B, block int, hidden []string, wrap func(io.ReadSeeker) io.ReadSeeker) {
	f := newFile(b, dataSize)
	r, err := adapter.NewReader(foreign.NewHandle(nil, foreign.Wrap(f, foreign.WithHidden(hidden...))), adapter.Config{})
	if err != nil {
		b.Fatalf("creating reader: %v", err)
	}
	defer r.Close()

	var rs io.ReadSeeker = r
	if wrap != nil {
		rs = wrap(r)
	}
	buf := make([]byte, block)

	b.SetBytes(int64(block))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rs.Read(buf); err == io.EOF {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				b.Fatalf("seek error: %v", err)
			}
		} else if err != nil {
			b.Fatalf("read error: %v", err)
		}
	}
}

// BenchmarkRead_ZeroCopy measures reads that go through readinto.
func BenchmarkRead_ZeroCopy(b *testing.B) {
	benchmarkRead(b, 4096, nil, nil)
}

// BenchmarkRead_Copy measures reads through the copying fallback.
func BenchmarkRead_Copy(b *testing.B) {
	benchmarkRead(b, 4096, []string{adapter.MethodReadInto}, nil)
}

// BenchmarkRead_SmallBuffered measures small reads served from the buffer.
func BenchmarkRead_SmallBuffered(b *testing.B) {
	benchmarkRead(b, 64, nil, func(r io.ReadSeeker) io.ReadSeeker {
		return buffered.NewReader(r)
	})
}

// BenchmarkRead_SmallUnbuffered measures small reads that each cross the
// foreign boundary.
func BenchmarkRead_SmallUnbuffered(b *testing.B) {
	benchmarkRead(b, 64, nil, nil)
}

func benchmarkSeekPoint(b *testing.B, cacheSize int) {
	f, err := memfs.New().Create("points.lzck")
	if err != nil {
		b.Fatalf("creating file: %v", err)
	}
	opts := chunked.Options{PointSize: 16, ChunkSize: 4096, CacheSize: cacheSize}

	c, err := chunked.NewCompressor(f, opts)
	if err != nil {
		b.Fatalf("creating compressor: %v", err)
	}
	points := make([]byte, 64*4096*16)
	for i := range points {
		points[i] = byte(i / 16)
	}
	if _, err := c.Write(points); err != nil {
		b.Fatalf("write error: %v", err)
	}
	if err := c.Close(); err != nil {
		b.Fatalf("close error: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		b.Fatalf("seek error: %v", err)
	}

	d, err := chunked.NewDecompressor(f, opts)
	if err != nil {
		b.Fatalf("creating decompressor: %v", err)
	}
	buf := make([]byte, 16*16)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := d.SeekPoint(uint64(i%cacheWorkingSet) * 4096); err != nil {
			b.Fatalf("seek error: %v", err)
		}
		if _, err := io.ReadFull(d, buf); err != nil {
			b.Fatalf("read error: %v", err)
		}
	}
}

// cacheWorkingSet is the number of distinct chunks the point lookups touch.
const cacheWorkingSet = 32

// BenchmarkSeekPoint_NoCache decodes a chunk on every lookup.
func BenchmarkSeekPoint_NoCache(b *testing.B) {
	benchmarkSeekPoint(b, 0)
}

// BenchmarkSeekPoint_Cached measures lookups within a cache-sized working
// set.
func BenchmarkSeekPoint_Cached(b *testing.B) {
	benchmarkSeekPoint(b, cacheWorkingSet)
}
