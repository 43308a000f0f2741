package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var decompressCmd = &cobra.Command{
	Use:   "decompress [STREAM] [OUTPUT]",
	Short: "Decompress a chunked stream into raw point records",
	Long: `Decompress reads the stream in STREAM and writes its points to OUTPUT.
STREAM may be a local file or an s3:// or gs:// URL.

With --count, only points [first, first+count) are decoded; the chunks
outside that range are never read.

Examples:
  lazio decompress points.lzck points.bin
  lazio decompress gs://bucket/points.lzck part.bin --first 5000 --count 100`,
	Args: cobra.ExactArgs(2),
	RunE: runDecompress,
}

var (
	streamOffset int64
	firstPoint   uint64
	pointCount   uint64
)

func init() {
	decompressCmd.Flags().Int64Var(&streamOffset, "offset", 0, "byte offset of the stream in the file")
	decompressCmd.Flags().Uint64Var(&firstPoint, "first", 0, "first point to decode")
	decompressCmd.Flags().Uint64Var(&pointCount, "count", 0, "number of points to decode (default: all)")
	rootCmd.AddCommand(decompressCmd)
}

func runDecompress(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	engine, logger, err := newEngine()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer engine.Close()

	ctx := cmd.Context()
	h, err := openHandle(ctx, engine, input, os.O_RDONLY)
	if err != nil {
		return err
	}
	defer h.Release()

	var points []byte
	if pointCount > 0 || firstPoint > 0 {
		count := pointCount
		if count == 0 {
			info, err := engine.Info(ctx, h, streamOffset)
			if err != nil {
				return fmt.Errorf("reading stream info: %w", err)
			}
			if firstPoint > info.Header.TotalPoints {
				return fmt.Errorf("--first %d is past the last point (%d)", firstPoint, info.Header.TotalPoints)
			}
			count = info.Header.TotalPoints - firstPoint
		}
		points, err = engine.DecompressRange(ctx, h, streamOffset, firstPoint, count)
	} else {
		points, err = engine.Decompress(ctx, h, streamOffset)
	}
	if err != nil {
		return fmt.Errorf("decompress failed: %w", err)
	}

	if err := writeLocal(output, points); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", formatBytes(int64(len(points))), output)
	return nil
}
