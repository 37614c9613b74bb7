package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/logger"
)

var (
	// Version is set at build time via -ldflags.
	Version = "dev"
	Commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nvol",
	Short: "nvol - chunked 3D volumetric storage engine",
	Long: `nvol stores a 3D dataspace as fixed-size cuboid blocks across a
pluggable backend (filesystem, S3, Azure, GCS) and translates arbitrary
rectangular cutouts into the set of blocks they touch.

Core commands:
  ingest  - write a raw data file into a cutout
  cutout  - read or write a cutout directly
  serve   - start the data-plane HTTP API
  admin   - start the read-only admin console
  watch   - reload the manifest on disk changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (falls back to NVOL_* env vars and defaults)")

	rootCmd.AddCommand(
		ingestCmd,
		cutoutCmd,
		serveCmd,
		adminCmd,
		watchCmd,
		versionCmd,
	)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("nvol %s (%s)\n", Version, Commit)
	},
}

func main() {
	logLevel := os.Getenv("NVOL_LOG_LEVEL")
	switch strings.ToLower(logLevel) {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn", "warning":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
