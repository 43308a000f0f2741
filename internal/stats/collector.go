// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Foreign call metrics.
	MetricForeignCalls   = "lazio_foreign_calls_total"
	MetricForeignErrors  = "lazio_foreign_errors_total"
	MetricForeignLatency = "lazio_foreign_call_seconds"

	// Transfer metrics.
	MetricBytesRead     = "lazio_bytes_read_total"
	MetricBytesWritten  = "lazio_bytes_written_total"
	MetricZeroCopyReads = "lazio_zero_copy_reads_total"
	MetricCopyReads     = "lazio_copy_reads_total"
	MetricReadOverruns  = "lazio_read_overruns_total"
	MetricSeeks         = "lazio_seeks_total"
	MetricFlushes       = "lazio_flushes_total"

	// Codec metrics.
	MetricChunksWritten    = "lazio_chunks_written_total"
	MetricChunksRead       = "lazio_chunks_read_total"
	MetricChunkCacheHits   = "lazio_chunk_cache_hits_total"
	MetricChunkCacheMisses = "lazio_chunk_cache_misses_total"
	MetricChunkCacheSize   = "lazio_chunk_cache_entries"
	MetricPointsWritten    = "lazio_points_written_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

// Noop discards all metrics.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = Noop{}

// NewNoop returns a collector that discards everything.
func NewNoop() Noop {
	return Noop{}
}

func (Noop) IncCounter(string, int64)         {}
func (Noop) SetGauge(string, int64)           {}
func (Noop) ObserveHistogram(string, float64) {}
