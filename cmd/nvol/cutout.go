package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/array"
	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/logger"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

var cutoutCmd = &cobra.Command{
	Use:   "cutout",
	Short: "Read or write a cutout directly against a data store",
}

var cutoutGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read a cutout and write it to a file",
	RunE:  runCutoutGet,
}

var cutoutPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Read a raw file and write it into a cutout",
	RunE:  runCutoutPut,
}

func init() {
	cutoutCmd.AddCommand(cutoutGetCmd, cutoutPutCmd)

	for _, c := range []*cobra.Command{cutoutGetCmd, cutoutPutCmd} {
		c.Flags().String("scale", "", "scale key (required)")
		c.Flags().Int64("x0", 0, "")
		c.Flags().Int64("x1", 0, "")
		c.Flags().Int64("y0", 0, "")
		c.Flags().Int64("y1", 0, "")
		c.Flags().Int64("z0", 0, "")
		c.Flags().Int64("z1", 0, "")
		c.Flags().String("dtype", "", "element type: uint8, uint16, uint32, uint64, float32 (required)")
		c.Flags().Bool("subtract-voxel-offset", false, "subtract the scale's voxel_offset from the given range before resolving blocks")
		c.MarkFlagRequired("scale")
		c.MarkFlagRequired("dtype")
	}
	cutoutGetCmd.Flags().String("output", "-", "output file path, or - for stdout")
	cutoutPutCmd.Flags().String("input", "-", "input file path, or - for stdin")
}

type cutoutFlags struct {
	scale            string
	dtype            string
	xrng, yrng, zrng engine.Range
	subtractOff      bool
}

func parseCutoutFlags(cmd *cobra.Command) (cutoutFlags, error) {
	var f cutoutFlags
	f.scale, _ = cmd.Flags().GetString("scale")
	f.dtype, _ = cmd.Flags().GetString("dtype")
	f.subtractOff, _ = cmd.Flags().GetBool("subtract-voxel-offset")
	x0, _ := cmd.Flags().GetInt64("x0")
	x1, _ := cmd.Flags().GetInt64("x1")
	y0, _ := cmd.Flags().GetInt64("y0")
	y1, _ := cmd.Flags().GetInt64("y1")
	z0, _ := cmd.Flags().GetInt64("z0")
	z1, _ := cmd.Flags().GetInt64("z1")
	if x1 <= x0 || y1 <= y0 || z1 <= z0 {
		return f, apperrors.New(apperrors.CodeInvalidInput, "each axis's end must be greater than its start")
	}
	f.xrng, f.yrng, f.zrng = engine.Range{x0, x1}, engine.Range{y0, y1}, engine.Range{z0, z1}
	return f, nil
}

func (f cutoutFlags) shape() (int, int, int) {
	return int(f.xrng[1] - f.xrng[0]), int(f.yrng[1] - f.yrng[0]), int(f.zrng[1] - f.zrng[0])
}

func runCutoutGet(cmd *cobra.Command, args []string) error {
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

	outputPath, _ := cmd.Flags().GetString("output")
	out := os.Stdout
	if outputPath != "-" {
		file, err := os.Create(outputPath)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIOFailure, "failed to create output file", err)
		}
		defer file.Close()
		out = file
	}

	ctx := context.Background()
	data, err := getCutoutBytes(ctx, a.eng, f.dtype, f.xrng, f.yrng, f.zrng, xdim, ydim, zdim, f.scale, f.subtractOff)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to write output", err)
	}
	logger.Info("cutout get: wrote %d bytes from scale %s", len(data), f.scale)
	return nil
}

func runCutoutPut(cmd *cobra.Command, args []string) error {
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
	if err := a.eng.FlushAll(ctx); err != nil {
		return err
	}
	logger.Info("cutout put: wrote %d bytes to scale %s", len(body), f.scale)
	return nil
}

// getCutoutBytes and putCutoutBytes mirror internal/api's dtype dispatch:
// the CLI and the HTTP API both need to turn a dtype string into a call
// to the right engine.Get[T]/engine.Put[T] instantiation.

func getCutoutBytes(ctx context.Context, eng *engine.Engine, dtype string, xrng, yrng, zrng engine.Range, xdim, ydim, zdim int, scaleKey string, subtractOff bool) ([]byte, error) {
	switch dtype {
	case "uint8":
		a := array.New[uint8](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint16":
		a := array.New[uint16](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint32":
		a := array.New[uint32](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "uint64":
		a := array.New[uint64](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	case "float32":
		a := array.New[float32](xdim, ydim, zdim)
		if err := engine.Get(ctx, eng, a, xrng, yrng, zrng, scaleKey, subtractOff); err != nil {
			return nil, err
		}
		return a.ToBytes(), nil
	default:
		return nil, apperrors.New(apperrors.CodeUnknownDataType, "unknown --dtype: "+dtype)
	}
}

func putCutoutBytes(ctx context.Context, eng *engine.Engine, dtype string, body []byte, xrng, yrng, zrng engine.Range, xdim, ydim, zdim int, scaleKey string, subtractOff bool) error {
	switch dtype {
	case "uint8":
		return engine.Put(ctx, eng, array.FromBytes[uint8](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint16":
		return engine.Put(ctx, eng, array.FromBytes[uint16](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint32":
		return engine.Put(ctx, eng, array.FromBytes[uint32](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "uint64":
		return engine.Put(ctx, eng, array.FromBytes[uint64](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	case "float32":
		return engine.Put(ctx, eng, array.FromBytes[float32](xdim, ydim, zdim, body), xrng, yrng, zrng, scaleKey, subtractOff)
	default:
		return apperrors.New(apperrors.CodeUnknownDataType, "unknown --dtype: "+dtype)
	}
}
