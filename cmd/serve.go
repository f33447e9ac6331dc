package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/assist"
	"github.com/ruslanmv/jobcraft/internal/digest"
	"github.com/ruslanmv/jobcraft/internal/discovery"
	"github.com/ruslanmv/jobcraft/internal/httpapi"
	"github.com/ruslanmv/jobcraft/internal/packet"
	"github.com/ruslanmv/jobcraft/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	logger := newLogger()

	static, store, router, catalog := coreServices(logger)

	trackerStore, err := tracker.New(static.DataDir)
	if err != nil {
		logger.Fatal("opening tracker database", zap.Error(err))
	}
	defer trackerStore.Close()

	server := httpapi.NewServer(&httpapi.Dependencies{
		Settings:  static,
		Store:     store,
		Router:    router,
		Catalog:   catalog,
		Discovery: discovery.NewClient(logger),
		Tracker:   trackerStore,
		Digest:    digest.NewSender(static.SMTP, logger),
		Assist:    assist.NewOpener(static.AllowlistJobDomains, logger),
		Packets:   packet.NewBuilder(router, logger),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting the jobcraft api",
			zap.String("version", version),
			zap.String("addr", server.Addr),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}
