package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appendCmd = &cobra.Command{
	Use:   "append [STREAM] [INPUT]",
	Short: "Append raw point records to an existing stream",
	Long: `Append reads INPUT as point records and adds them to the end of the
stream in STREAM. The codec, point size and chunk size come from the
stream's header; the corresponding flags are ignored.

The stream is read and rewritten in place through a single dual-buffered
adapter.

Example:
  lazio append points.lzck more.bin`,
	Args: cobra.ExactArgs(2),
	RunE: runAppend,
}

var appendOffset int64

func init() {
	appendCmd.Flags().Int64Var(&appendOffset, "offset", 0, "byte offset of the stream in the file")
	rootCmd.AddCommand(appendCmd)
}

func runAppend(cmd *cobra.Command, args []string) error {
	stream, input := args[0], args[1]

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
	h, err := openHandle(ctx, engine, stream, os.O_RDWR)
	if err != nil {
		return err
	}
	defer h.Release()

	info, err := engine.Append(ctx, h, appendOffset, points)
	if err != nil {
		return fmt.Errorf("append failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Points:  %d\n", info.Header.TotalPoints)
	fmt.Fprintf(cmd.OutOrStdout(), "Chunks:  %d\n", len(info.Table))
	return nil
}
