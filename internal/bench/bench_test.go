package bench

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/stats"
)

func TestMannWhitneyU(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []float64
		wantSignif bool
	}{
		{
			name:       "identical samples",
			a:          []float64{1, 2, 3, 4, 5},
			b:          []float64{1, 2, 3, 4, 5},
			wantSignif: false,
		},
		{
			name:       "clearly different samples",
			a:          []float64{1, 2, 3, 4, 5},
			b:          []float64{10, 11, 12, 13, 14},
			wantSignif: true,
		},
		{
			name:       "highly overlapping samples",
			a:          []float64{3, 4, 5, 6, 7},
			b:          []float64{4, 5, 6, 7, 8},
			wantSignif: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MannWhitneyU(tt.a, tt.b)
			if got.Significant != tt.wantSignif {
				t.Errorf("Significant = %v, want %v (p=%f)", got.Significant, tt.wantSignif, got.PValue)
			}
		})
	}

	if got := MannWhitneyU(nil, []float64{1}); got.U != 0 {
		t.Errorf("U = %f, want 0 for empty sample", got.U)
	}
}

func TestCohensD(t *testing.T) {
	d, label := CohensD([]float64{1, 2, 3}, []float64{1, 2, 3})
	if d != 0 || label != "negligible" {
		t.Errorf("CohensD(equal) = (%v, %q), want (0, negligible)", d, label)
	}
	d, label = CohensD([]float64{1, 2, 3}, []float64{11, 12, 13})
	if d >= 0 || label != "large" {
		t.Errorf("CohensD(far apart) = (%v, %q), want negative and large", d, label)
	}
	if _, label := CohensD([]float64{1}, []float64{2, 3}); label != "undefined" {
		t.Errorf("CohensD(single) label = %q, want undefined", label)
	}
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{5, 1, 3, 2, 4})
	if s.N != 5 || s.Mean != 3 || s.Median != 3 || s.Min != 1 || s.Max != 5 {
		t.Errorf("Describe() = %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, math.Sqrt(2.5))
	}
	if got := Describe(nil); got.N != 0 {
		t.Errorf("Describe(nil) = %+v, want zero", got)
	}
}

func TestRun(t *testing.T) {
	mem := stats.NewMemory()
	res, err := Run(Config{DataSize: 10000, BlockSize: 1000, Passes: 2, Adapter: adapter.Config{Stats: mem}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, p := range Paths {
		if len(res.Latencies[p]) == 0 {
			t.Errorf("no samples for %s", p)
		}
	}
	// Ten full reads plus the EOF call, twice.
	if got := len(res.Latencies[PathZeroCopy]); got != 22 {
		t.Errorf("zero-copy samples = %d, want 22", got)
	}
	if mem.Counter(stats.MetricCopyReads) == 0 || mem.Counter(stats.MetricZeroCopyReads) == 0 {
		t.Error("both read paths should have been exercised")
	}

	var buf bytes.Buffer
	WriteMarkdown(&buf, res)
	for _, want := range []string{"# Read path latency", "| zero-copy |", "| copy |", "| buffered |", "Mann-Whitney U"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q", want)
		}
	}
}
