package adapter

import (
	"time"

	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/stats"
)

// base is embedded by every adapter: one handle, its ambient dependencies,
// and the call bookkeeping shared by all foreign calls.
type base struct {
	h      *foreign.Handle
	logger *zap.Logger
	stats  stats.Collector
}

func newBase(h *foreign.Handle, cfg Config, kind string) base {
	cfg = cfg.withDefaults()
	return base{
		h:      h,
		logger: cfg.Logger.Named(kind),
		stats:  cfg.Stats,
	}
}

// call crosses into the foreign runtime exactly once. A failure is mapped
// to ErrForeignCallFailed and never retried.
func (b *base) call(fn *foreign.Binding, args ...foreign.Value) (foreign.Value, error) {
	start := time.Now()
	v, err := fn.Call(args...)
	b.stats.ObserveHistogram(stats.MetricForeignLatency, time.Since(start).Seconds())
	b.stats.IncCounter(stats.MetricForeignCalls, 1)
	if err != nil {
		b.stats.IncCounter(stats.MetricForeignErrors, 1)
		b.logger.Debug("foreign call failed",
			zap.String("method", fn.Name()),
			zap.Error(err),
		)
		return nil, foreignCallFailed(fn.Name(), err)
	}
	return v, nil
}

// Close releases the adapter's reference to the foreign object.
func (b *base) Close() error {
	return b.h.Release()
}

// Handle returns the handle the adapter was built on.
func (b *base) Handle() *foreign.Handle {
	return b.h
}
