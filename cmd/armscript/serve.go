package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saker-ai/armscript/pkg/runtime"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and websocket tool API",
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := runtime.New(configPath)
		if err != nil {
			return err
		}
		logger := server.Logger()
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Run()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("http server error", zap.Error(err))
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown failed", zap.Error(err))
			return err
		}
		return nil
	},
}
