// Package bench measures the latency of the read paths of the read adapter.
package bench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/discochess/lazio/foreign"
	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/buffered"
)

// Path is a read strategy under test.
type Path string

const (
	PathZeroCopy Path = "zero-copy"
	PathCopy     Path = "copy"
	PathBuffered Path = "buffered"
)

// Paths lists every path in report order.
var Paths = []Path{PathZeroCopy, PathCopy, PathBuffered}

// Config controls a benchmark run.
type Config struct {
	// DataSize is the size of the in-memory file read on each pass.
	DataSize int
	// BlockSize is the size of each Read call.
	BlockSize int
	// Passes is the number of times the whole file is read per path.
	Passes int
	// BufferSize is the buffer of the buffered path.
	BufferSize int
	// Adapter carries the logger and stats collector for the adapters.
	Adapter adapter.Config
}

func (c Config) withDefaults() Config {
	if c.DataSize <= 0 {
		c.DataSize = 1 << 20
	}
	if c.BlockSize <= 0 {
		c.BlockSize = 4096
	}
	if c.Passes <= 0 {
		c.Passes = 5
	}
	if c.BufferSize <= 0 {
		c.BufferSize = buffered.DefaultSize
	}
	return c
}

// Result holds per-call latencies in microseconds, keyed by path.
type Result struct {
	Config    Config
	Latencies map[Path][]float64
}

// Run reads the same data through every path and records the latency of
// each Read call.
func Run(cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	data := make([]byte, cfg.DataSize)
	for i := range data {
		data[i] = byte(i * 31)
	}

	res := &Result{Config: cfg, Latencies: make(map[Path][]float64)}
	for _, p := range Paths {
		for pass := 0; pass < cfg.Passes; pass++ {
			samples, err := runPass(cfg, p, data)
			if err != nil {
				return nil, fmt.Errorf("%s pass %d: %w", p, pass, err)
			}
			res.Latencies[p] = append(res.Latencies[p], samples...)
		}
	}
	return res, nil
}

func runPass(cfg Config, p Path, data []byte) ([]float64, error) {
	fs := memfs.New()
	f, err := fs.Create("bench.bin")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var opts []foreign.WrapOption
	if p == PathCopy {
		opts = append(opts, foreign.WithHidden(adapter.MethodReadInto))
	}
	ar, err := adapter.NewReader(foreign.NewHandle(nil, foreign.Wrap(f, opts...)), cfg.Adapter)
	if err != nil {
		return nil, err
	}
	var r io.ReadCloser = ar
	if p == PathBuffered {
		r = buffered.NewReaderSize(ar, cfg.BufferSize)
	}
	defer r.Close()

	var (
		samples []float64
		out     bytes.Buffer
	)
	buf := make([]byte, cfg.BlockSize)
	for {
		start := time.Now()
		n, err := r.Read(buf)
		samples = append(samples, float64(time.Since(start).Nanoseconds())/1e3)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if !bytes.Equal(out.Bytes(), data) {
		return nil, errors.New("bench: read back different bytes")
	}
	return samples, nil
}

// Comparison contrasts two paths.
type Comparison struct {
	A, B           Path
	SummaryA       Summary
	SummaryB       Summary
	Test           MannWhitney
	EffectSize     float64
	Interpretation string
}

// Compare runs the statistical comparison of paths a and b.
func (r *Result) Compare(a, b Path) Comparison {
	sa, sb := r.Latencies[a], r.Latencies[b]
	d, label := CohensD(sa, sb)
	return Comparison{
		A:              a,
		B:              b,
		SummaryA:       Describe(sa),
		SummaryB:       Describe(sb),
		Test:           MannWhitneyU(sa, sb),
		EffectSize:     d,
		Interpretation: label,
	}
}

// Faster returns the path with the lower mean latency, or "tie".
func (c Comparison) Faster() string {
	switch {
	case c.SummaryA.Mean < c.SummaryB.Mean:
		return string(c.A)
	case c.SummaryB.Mean < c.SummaryA.Mean:
		return string(c.B)
	}
	return "tie"
}
