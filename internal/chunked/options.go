package chunked

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/discochess/lazio/internal/chunkcache"
	"github.com/discochess/lazio/internal/chunkcache/lru"
	"github.com/discochess/lazio/internal/codec"
	"github.com/discochess/lazio/internal/codec/gzipcodec"
	"github.com/discochess/lazio/internal/codec/noopcodec"
	"github.com/discochess/lazio/internal/codec/zstdcodec"
	"github.com/discochess/lazio/internal/stats"
)

// Default settings.
const (
	DefaultChunkSize = 50000
	DefaultWorkers   = 1
	DefaultCacheSize = 16
)

// Limits on streams read from untrusted input.
const (
	maxTableEntries = 1 << 24
	maxChunkBytes   = 1 << 30 // decoded size of one chunk
)

// Options configures compressors and decompressors.
type Options struct {
	// Codec compresses new chunks. Defaults to no compression.
	Codec codec.Codec

	// Codecs resolves the codec named in a stream header when reading or
	// appending. Defaults to DefaultCodecs.
	Codecs *codec.Registry

	// PointSize is the size of one point record in bytes. Required for
	// compression; taken from the header otherwise.
	PointSize int

	// ChunkSize is the number of points per chunk.
	ChunkSize int

	// Workers is the number of chunks coded concurrently. Foreign I/O
	// stays sequential regardless.
	Workers int

	// CacheSize is the number of decoded chunks kept by a decompressor.
	// Zero disables the cache.
	CacheSize int

	Logger *zap.Logger
	Stats  stats.Collector
}

func (o Options) withDefaults() (Options, error) {
	if o.Codec == nil {
		o.Codec = noopcodec.New()
	}
	if o.Codecs == nil {
		reg, err := DefaultCodecs()
		if err != nil {
			return o, err
		}
		o.Codecs = reg
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.CacheSize < 0 {
		o.CacheSize = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Stats == nil {
		o.Stats = stats.NewNoop()
	}
	return o, nil
}

func (o Options) newCache() (*chunkcache.Cache, error) {
	if o.CacheSize == 0 {
		return chunkcache.New(nil, o.Stats), nil
	}
	strategy, err := lru.New(o.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating chunk cache: %w", err)
	}
	return chunkcache.New(strategy, o.Stats), nil
}

// DefaultCodecs returns a registry of every built-in codec.
func DefaultCodecs() (*codec.Registry, error) {
	zc, err := zstdcodec.New()
	if err != nil {
		return nil, fmt.Errorf("creating zstd codec: %w", err)
	}
	return codec.NewRegistry(noopcodec.New(), gzipcodec.New(), zc), nil
}

var (
	errNoPointSize = errors.New("chunked: point size must be positive")
	errChunkTooBig = errors.New("chunked: chunk exceeds 1 GiB decoded")
)
