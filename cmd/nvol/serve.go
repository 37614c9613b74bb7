package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/api"
	"github.com/neurovol/neurovol/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the data-plane HTTP API",
	Long:  "Start the chi-based data-plane API: /healthz and /scales/{scaleKey}/cutout.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides the config file's api.addr")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.API.Addr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{Addr: cfg.API.Addr, Handler: api.New(a.eng, a.metrics, a.registry)}

	go func() {
		logger.Info("data-plane API listening on %s", cfg.API.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("data-plane API server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := context.Background()
	logger.Info("shutting down, flushing all dirty blocks")
	if err := a.eng.FlushAll(ctx); err != nil {
		logger.Error("flush on shutdown failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
