// Package adapter turns a foreign file object into native io.Reader,
// io.Writer and io.Seeker implementations.
package adapter

import (
	"go.uber.org/zap"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/stats"
)

// Mode is the set of capabilities an adapter needs.
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	ModeSeek
)

// Method names of the foreign file contract.
const (
	MethodRead     = "read"
	MethodReadInto = "readinto"
	MethodWrite    = "write"
	MethodSeek     = "seek"
	MethodFlush    = "flush"
)

// probeOrder is the order methods are resolved in. Required methods are
// reported in this order when several are missing.
var probeOrder = []string{MethodWrite, MethodRead, MethodSeek, MethodFlush, MethodReadInto}

// Capabilities holds the bindings resolved for one foreign object.
// A nil binding means the object does not define that method.
type Capabilities struct {
	Read     *foreign.Binding
	ReadInto *foreign.Binding
	Write    *foreign.Binding
	Seek     *foreign.Binding
	Flush    *foreign.Binding
}

// Has reports whether the named method was resolved.
func (c *Capabilities) Has(method string) bool {
	return c.binding(method) != nil
}

func (c *Capabilities) binding(method string) *foreign.Binding {
	switch method {
	case MethodRead:
		return c.Read
	case MethodReadInto:
		return c.ReadInto
	case MethodWrite:
		return c.Write
	case MethodSeek:
		return c.Seek
	case MethodFlush:
		return c.Flush
	}
	return nil
}

func (c *Capabilities) set(method string, b *foreign.Binding) {
	switch method {
	case MethodRead:
		c.Read = b
	case MethodReadInto:
		c.ReadInto = b
	case MethodWrite:
		c.Write = b
	case MethodSeek:
		c.Seek = b
	case MethodFlush:
		c.Flush = b
	}
}

// Required returns the methods an adapter in mode cannot work without.
// flush is required for writing and optional otherwise; readinto is never
// required.
func Required(mode Mode) map[string]bool {
	req := make(map[string]bool)
	if mode&ModeRead != 0 {
		req[MethodRead] = true
	}
	if mode&ModeWrite != 0 {
		req[MethodWrite] = true
		req[MethodFlush] = true
	}
	if mode&ModeSeek != 0 {
		req[MethodSeek] = true
	}
	return req
}

// Probe resolves every method of the file contract on h once. Optional
// methods that cannot be resolved are recorded as absent; a missing method
// required by mode fails with ErrMissingCapability. Probing only looks
// methods up, it never calls them.
func Probe(h *foreign.Handle, mode Mode) (*Capabilities, error) {
	required := Required(mode)
	caps := &Capabilities{}
	for _, method := range probeOrder {
		b, err := h.Bind(method)
		if err != nil {
			if required[method] {
				return nil, missingCapability(method, nil)
			}
			continue
		}
		caps.set(method, b)
	}
	return caps, nil
}

// Config holds the ambient dependencies shared by all adapters.
type Config struct {
	Logger *zap.Logger
	Stats  stats.Collector
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Stats == nil {
		c.Stats = stats.NewNoop()
	}
	return c
}

func logCapabilities(log *zap.Logger, kind string, caps *Capabilities) {
	log.Debug("probed foreign object",
		zap.String("adapter", kind),
		zap.Bool("read", caps.Read != nil),
		zap.Bool("readinto", caps.ReadInto != nil),
		zap.Bool("write", caps.Write != nil),
		zap.Bool("seek", caps.Seek != nil),
		zap.Bool("flush", caps.Flush != nil),
	)
}
