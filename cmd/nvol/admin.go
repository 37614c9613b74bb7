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

	"github.com/neurovol/neurovol/internal/adminserver"
	"github.com/neurovol/neurovol/internal/logger"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Start the read-only admin console",
	Long:  "Start the gin-based admin console: /healthz, /scales, /scales/{scaleKey} and its Swagger docs. Runs on its own port, separate from serve.",
	RunE:  runAdmin,
}

func init() {
	adminCmd.Flags().String("addr", "", "listen address, overrides the config file's admin.addr")
}

func runAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Admin.Addr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{Addr: cfg.Admin.Addr, Handler: adminserver.New(a.eng, a.metrics)}

	go func() {
		logger.Info("admin console listening on %s", cfg.Admin.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin console server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
