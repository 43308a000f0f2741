package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [STREAM]",
	Short: "Show the header and chunk table of a stream",
	Long: `Info prints the header of the stream in STREAM, which may be a local file
or an s3:// or gs:// URL. Only the header and chunk table are read.

Examples:
  lazio info points.lzck
  lazio info s3://bucket/points.lzck --chunks`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

var (
	infoOffset int64
	listChunks bool
)

func init() {
	infoCmd.Flags().Int64Var(&infoOffset, "offset", 0, "byte offset of the stream in the file")
	infoCmd.Flags().BoolVar(&listChunks, "chunks", false, "list every chunk")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	engine, logger, err := newEngine()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer engine.Close()

	ctx := cmd.Context()
	h, err := openHandle(ctx, engine, args[0], os.O_RDONLY)
	if err != nil {
		return err
	}
	defer h.Release()

	info, err := engine.Info(ctx, h, infoOffset)
	if err != nil {
		return fmt.Errorf("reading stream info: %w", err)
	}

	hdr := info.Header
	raw := int64(hdr.TotalPoints) * int64(hdr.PointSize)
	stored := int64(info.Table.Bytes())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Version:     %d\n", hdr.Version)
	fmt.Fprintf(out, "Codec:       %s\n", info.Codec)
	fmt.Fprintf(out, "Point size:  %d\n", hdr.PointSize)
	fmt.Fprintf(out, "Chunk size:  %d\n", hdr.ChunkSize)
	fmt.Fprintf(out, "Points:      %d\n", hdr.TotalPoints)
	fmt.Fprintf(out, "Chunks:      %d\n", len(info.Table))
	fmt.Fprintf(out, "Raw size:    %s\n", formatBytes(raw))
	fmt.Fprintf(out, "Stored size: %s\n", formatBytes(stored))
	if stored > 0 {
		fmt.Fprintf(out, "Ratio:       %.2fx\n", float64(raw)/float64(stored))
	}

	if listChunks {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Chunk  Points  Bytes")
		for i, e := range info.Table {
			fmt.Fprintf(out, "%5d  %6d  %d\n", i, e.PointCount, e.ByteCount)
		}
	}
	return nil
}
