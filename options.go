package lazio

import (
	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/buffered"
	"github.com/discochess/lazio/internal/chunked"
	"github.com/discochess/lazio/internal/stats"
)

// Option configures an Engine.
type Option interface {
	apply(*options)
}

// options holds the engine configuration.
type options struct {
	runtime    *foreign.Runtime
	stats      stats.Collector
	logger     *zap.Logger
	bufferSize int
	codec      string
	pointSize  int
	chunkSize  int
	workers    int
	cacheSize  int
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		runtime:    foreign.Default(),
		stats:      stats.NewNoop(),
		logger:     zap.NewNop(),
		bufferSize: buffered.DefaultSize,
		codec:      "zstd",
		chunkSize:  chunked.DefaultChunkSize,
		workers:    chunked.DefaultWorkers,
		cacheSize:  chunked.DefaultCacheSize,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithRuntime sets the foreign runtime new handles belong to.
// If not set, foreign.Default() is used.
func WithRuntime(rt *foreign.Runtime) Option {
	return optionFunc(func(o *options) {
		o.runtime = rt
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithBufferSize sets the buffer size of buffered and dual-buffered
// adapters. Default is 8 KiB.
func WithBufferSize(n int) Option {
	return optionFunc(func(o *options) {
		o.bufferSize = n
	})
}

// WithCodec selects the chunk codec for new streams: "zstd" (default),
// "gzip" or "none".
func WithCodec(name string) Option {
	return optionFunc(func(o *options) {
		o.codec = name
	})
}

// WithPointSize sets the size of one point record in bytes. Required
// for Compress.
func WithPointSize(n int) Option {
	return optionFunc(func(o *options) {
		o.pointSize = n
	})
}

// WithChunkSize sets the number of points per chunk.
// Default is 50000.
func WithChunkSize(n int) Option {
	return optionFunc(func(o *options) {
		o.chunkSize = n
	})
}

// WithWorkers sets how many chunks are compressed or decompressed in
// parallel. Default is 1.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		o.workers = n
	})
}

// WithCacheSize sets how many decoded chunks a decompressor keeps.
// Default is 16; 0 disables the cache.
func WithCacheSize(n int) Option {
	return optionFunc(func(o *options) {
		o.cacheSize = n
	})
}
