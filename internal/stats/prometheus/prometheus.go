// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/lazio/internal/stats"
)

// latencyBuckets cover foreign calls from a microsecond to about a second.
var latencyBuckets = prometheus.ExponentialBuckets(1e-6, 4, 11)

var help = map[string]string{
	stats.MetricForeignCalls:   "Calls made into foreign file objects.",
	stats.MetricForeignErrors:  "Foreign calls that reported a failure.",
	stats.MetricForeignLatency: "Duration of a single foreign call in seconds.",
	stats.MetricBytesRead:      "Bytes read through read adapters.",
	stats.MetricBytesWritten:   "Bytes written through write adapters.",
	stats.MetricZeroCopyReads:  "Reads served by readinto.",
	stats.MetricCopyReads:      "Reads served by the copying read fallback.",
	stats.MetricReadOverruns:   "Fallback reads that returned more bytes than requested.",
	stats.MetricChunksWritten:  "Compressed chunks written.",
	stats.MetricChunksRead:     "Compressed chunks read and decoded.",
	stats.MetricChunkCacheSize: "Decoded chunks held in the chunk cache.",
}

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry prometheus.Registerer

	counters   metricSet[prometheus.Counter]
	gauges     metricSet[prometheus.Gauge]
	histograms metricSet[prometheus.Histogram]
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{registry: registry}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := c.counters.get(c.registry, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: helpFor(name)})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := c.gauges.get(c.registry, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: helpFor(name)})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := c.histograms.get(c.registry, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if name == stats.MetricForeignLatency {
			buckets = latencyBuckets
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpFor(name),
			Buckets: buckets,
		})
	})
	histogram.Observe(value)
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// metricSet lazily creates and registers metrics of one kind.
type metricSet[M prometheus.Collector] struct {
	mu      sync.Mutex
	metrics map[string]M
}

func (s *metricSet[M]) get(reg prometheus.Registerer, name string, create func() M) M {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.metrics[name]; ok {
		return m
	}
	if s.metrics == nil {
		s.metrics = make(map[string]M)
	}

	m := create()
	if err := reg.Register(m); err != nil {
		// Reuse a metric someone else registered under the same name. On any
		// other registration error the unregistered metric still counts.
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
	}
	s.metrics[name] = m
	return m
}
