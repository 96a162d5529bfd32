package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/crag-boot/bootstrap"
	"github.com/SaiNageswarS/crag-boot/observability"
	"github.com/SaiNageswarS/crag-boot/server"
	"github.com/SaiNageswarS/crag-boot/vectorstore"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := bootstrap.LoadConfig("config.ini")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := getCancellableContext()

	shutdownTracer, err := observability.InitTracer(ctx, "crag-boot", cfg.TraceExporter)
	if err != nil {
		logger.Fatal("Failed to init tracer", zap.Error(err))
	}

	metrics := observability.NewMetricsReporter(prometheus.DefaultRegisterer)
	app, err := bootstrap.New(ctx, cfg, workflow.MultiReporter{&workflow.LogReporter{}, metrics})
	if err != nil {
		logger.Fatal("Failed to build workflow", zap.Error(err))
	}

	srv := server.New(app.Engine, app.Recorder, server.Options{
		DefaultMaxRetries: cfg.DefaultMaxRetries,
		WebSearchDisabled: cfg.WebSearchDisabled,
		CountTokens:       vectorstore.TokenCounter(),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down http server", zap.Error(err))
		}
	}()

	logger.Info("Starting CRAG server", zap.String("addr", cfg.HTTPPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}

	if err := shutdownTracer(context.Background()); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
