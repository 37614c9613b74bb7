package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/logger"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a raw data file into a scale, flushing every touched block",
	Long: `ingest is cutout put plus a flush and a progress display: it reads
an entire raw file into one cutout, writes it block by block in Morton
order, and reports progress as each block's flush completes. Use cutout
put directly for a write you don't want to watch.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("scale", "", "scale key (required)")
	ingestCmd.Flags().Int64("x0", 0, "")
	ingestCmd.Flags().Int64("x1", 0, "")
	ingestCmd.Flags().Int64("y0", 0, "")
	ingestCmd.Flags().Int64("y1", 0, "")
	ingestCmd.Flags().Int64("z0", 0, "")
	ingestCmd.Flags().Int64("z1", 0, "")
	ingestCmd.Flags().String("dtype", "", "element type: uint8, uint16, uint32, uint64, float32 (required)")
	ingestCmd.Flags().Bool("subtract-voxel-offset", false, "subtract the scale's voxel_offset from the given range before resolving blocks")
	ingestCmd.Flags().String("input", "-", "input file path, or - for stdin")
	ingestCmd.Flags().Bool("progress", true, "show a live ingest-progress view")
	ingestCmd.MarkFlagRequired("scale")
	ingestCmd.MarkFlagRequired("dtype")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := parseCutoutFlags(cmd)
	if err != nil {
		return err
	}
	xdim, ydim, zdim := f.shape()

	inputPath, _ := cmd.Flags().GetString("input")
	in := io.Reader(os.Stdin)
	if inputPath != "-" {
		file, err := os.Open(inputPath)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIOFailure, "failed to open input file", err)
		}
		defer file.Close()
		in = file
	}
	body, err := io.ReadAll(in)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to read input", err)
	}

	ctx := context.Background()
	if err := putCutoutBytes(ctx, a.eng, f.dtype, body, f.xrng, f.yrng, f.zrng, xdim, ydim, zdim, f.scale, f.subtractOff); err != nil {
		return err
	}

	showProgress, _ := cmd.Flags().GetBool("progress")
	if showProgress && isTerminal(os.Stdout) {
		if err := runIngestProgress(a.eng, f.scale); err != nil {
			return err
		}
	} else if err := a.eng.FlushAll(ctx); err != nil {
		return err
	}

	logger.Info("ingest: wrote %d bytes to scale %s", len(body), f.scale)
	return nil
}
