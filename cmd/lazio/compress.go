package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var compressCmd = &cobra.Command{
	Use:   "compress [INPUT] [OUTPUT]",
	Short: "Compress raw point records into a chunked stream",
	Long: `Compress reads INPUT as a sequence of fixed-size point records and writes
them to OUTPUT as a chunked stream. INPUT must be a whole number of points.

Examples:
  lazio compress points.bin points.lzck --point-size 20
  lazio compress points.bin points.lzck -p 20 --codec gzip --workers 4`,
	Args: cobra.ExactArgs(2),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	if pointSize <= 0 {
		return fmt.Errorf("--point-size is required")
	}

	engine, logger, err := newEngine()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer engine.Close()

	points, err := readLocal(input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	h, err := openHandle(ctx, engine, output, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	defer h.Release()

	start := time.Now()
	info, err := engine.Compress(ctx, h, points)
	if err != nil {
		return fmt.Errorf("compress failed: %w", err)
	}
	elapsed := time.Since(start)

	stored := int64(info.Header.TableOffset)
	fmt.Fprintf(cmd.OutOrStdout(), "Points:  %d\n", info.Header.TotalPoints)
	fmt.Fprintf(cmd.OutOrStdout(), "Chunks:  %d\n", len(info.Table))
	fmt.Fprintf(cmd.OutOrStdout(), "Size:    %s -> %s\n", formatBytes(int64(len(points))), formatBytes(stored))
	fmt.Fprintf(cmd.OutOrStdout(), "Time:    %s\n", elapsed.Round(time.Millisecond))
	return nil
}
