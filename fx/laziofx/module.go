// Package laziofx provides an fx module for a lazio engine.
package laziofx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/lazio"
	"github.com/discochess/lazio/internal/stats"
	"github.com/discochess/lazio/internal/stats/logger"
)

// Config holds configuration for the engine.
type Config struct {
	// Codec names the chunk codec for new streams.
	// Default is "zstd".
	Codec string

	// PointSize is the size of one point record in bytes.
	PointSize int

	// ChunkSize is the number of points per chunk.
	// Default is 50000.
	ChunkSize int

	// Workers is the number of chunks coded in parallel.
	// Default is 1.
	Workers int

	// CacheSize is the number of decoded chunks kept per stream.
	// Default is 16.
	CacheSize int

	// BufferSize is the buffer size of buffered adapters.
	// Default is 8 KiB.
	BufferSize int
}

// Module provides a *lazio.Engine.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("lazio",
	fx.Provide(
		newStatsCollector,
		newEngine,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("lazio.stats"))
}

// Params holds dependencies for creating the engine.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided engine.
type Result struct {
	fx.Out

	Engine *lazio.Engine
}

func newEngine(p Params) (Result, error) {
	opts := []lazio.Option{
		lazio.WithStats(p.Collector),
		lazio.WithLogger(p.Logger.Named("lazio")),
	}
	if p.Config.Codec != "" {
		opts = append(opts, lazio.WithCodec(p.Config.Codec))
	}
	if p.Config.PointSize > 0 {
		opts = append(opts, lazio.WithPointSize(p.Config.PointSize))
	}
	if p.Config.ChunkSize > 0 {
		opts = append(opts, lazio.WithChunkSize(p.Config.ChunkSize))
	}
	if p.Config.Workers > 0 {
		opts = append(opts, lazio.WithWorkers(p.Config.Workers))
	}
	if p.Config.CacheSize > 0 {
		opts = append(opts, lazio.WithCacheSize(p.Config.CacheSize))
	}
	if p.Config.BufferSize > 0 {
		opts = append(opts, lazio.WithBufferSize(p.Config.BufferSize))
	}

	engine, err := lazio.New(opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return engine.Close()
		},
	})

	return Result{Engine: engine}, nil
}
