package bench

import (
	"fmt"
	"io"
)

// WriteMarkdown writes a Markdown report of res to w.
func WriteMarkdown(w io.Writer, res *Result) {
	cfg := res.Config
	fmt.Fprintln(w, "# Read path latency")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Data size:** %d bytes\n", cfg.DataSize)
	fmt.Fprintf(w, "- **Read size:** %d bytes\n", cfg.BlockSize)
	fmt.Fprintf(w, "- **Passes:** %d\n", cfg.Passes)
	fmt.Fprintln(w, "- **Statistical tests:** Mann-Whitney U (non-parametric), Cohen's d effect size")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Path | Calls | Mean µs | Median µs | P90 µs | P99 µs | Max µs |")
	fmt.Fprintln(w, "|------|-------|---------|-----------|--------|--------|--------|")
	for _, p := range Paths {
		s := Describe(res.Latencies[p])
		fmt.Fprintf(w, "| %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			p, s.N, s.Mean, s.Median, s.P90, s.P99, s.Max)
	}
	fmt.Fprintln(w)

	c := res.Compare(PathZeroCopy, PathCopy)
	sig := "not statistically significant"
	if c.Test.Significant {
		sig = fmt.Sprintf("statistically significant (p=%.4f)", c.Test.PValue)
	}
	fmt.Fprintf(w, "## %s vs %s\n\n", c.A, c.B)
	fmt.Fprintf(w, "- **Mann-Whitney U:** %.2f (z=%.2f, p=%.4f)\n", c.Test.U, c.Test.Z, c.Test.PValue)
	fmt.Fprintf(w, "- **Effect size (Cohen's d):** %.2f (%s)\n", c.EffectSize, c.Interpretation)
	fmt.Fprintf(w, "- **Faster:** %s, %s\n", c.Faster(), sig)
}
