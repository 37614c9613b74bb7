package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the manifest file for changes and log reloads",
	Long: "Watch watches a filesystem-backed manifest file for changes and logs each " +
		"reload it picks up. It does not hot-swap a running serve/admin process's " +
		"engine: a manifest's chunk layout is fixed for the lifetime of its block " +
		"indices, so picking up a changed manifest means restarting serve/admin, " +
		"not patching them in place. Use this command to observe when that restart " +
		"is needed.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store.Backend != "filesystem" {
		return fmt.Errorf("watch only supports the filesystem backend, got %q", cfg.Store.Backend)
	}

	path := filepath.Join(cfg.Store.FilesystemPath, cfg.Manifest)
	onReload := func(m *manifest.Manifest) {
		logger.Info("manifest changed: type=%s data_type=%s num_channels=%d scales=%d",
			m.Type, m.DataType, m.NumChannels, len(m.Scales))
	}

	w, err := watch.NewFileWatcher(path, onReload)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	logger.Info("watching %s for manifest changes", path)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
