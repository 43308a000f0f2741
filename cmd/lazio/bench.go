package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/lazio/internal/adapter"
	"github.com/discochess/lazio/internal/bench"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare the zero-copy, copying and buffered read paths",
	Long: `Bench reads the same in-memory file through each read path and compares
the per-call latencies with a Mann-Whitney U test and Cohen's d.

Examples:
  lazio bench
  lazio bench --size 4194304 --block 512 --format markdown --output report.md`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

var (
	benchSize    int
	benchBlock   int
	benchPasses  int
	outputFormat string
	outputFile   string
)

func init() {
	benchCmd.Flags().IntVar(&benchSize, "size", 1<<20, "bytes read per pass")
	benchCmd.Flags().IntVar(&benchBlock, "block", 4096, "bytes per Read call")
	benchCmd.Flags().IntVar(&benchPasses, "passes", 5, "passes per read path")
	benchCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text, markdown")
	benchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	res, err := bench.Run(bench.Config{
		DataSize:   benchSize,
		BlockSize:  benchBlock,
		Passes:     benchPasses,
		BufferSize: bufferSize,
		Adapter:    adapter.Config{Logger: logger.Named("bench"), Stats: newCollector()},
	})
	if err != nil {
		return fmt.Errorf("benchmark failed: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch outputFormat {
	case "markdown":
		bench.WriteMarkdown(w, res)
	case "text":
		writeBenchText(w, res)
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
	return nil
}

func writeBenchText(w io.Writer, res *bench.Result) {
	fmt.Fprintf(w, "%-10s %8s %10s %10s %10s\n", "path", "calls", "mean µs", "p50 µs", "p99 µs")
	for _, p := range bench.Paths {
		s := bench.Describe(res.Latencies[p])
		fmt.Fprintf(w, "%-10s %8d %10.2f %10.2f %10.2f\n", p, s.N, s.Mean, s.Median, s.P99)
	}
	c := res.Compare(bench.PathZeroCopy, bench.PathCopy)
	fmt.Fprintf(w, "\n%s vs %s: p=%.4f, d=%.2f (%s), faster: %s\n",
		c.A, c.B, c.Test.PValue, c.EffectSize, c.Interpretation, c.Faster())
}
