package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/energy-usage-report/internal/adapter/capitals"
	"github.com/couchcryptid/energy-usage-report/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/energy-usage-report/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/energy-usage-report/internal/adapter/kafka"
	"github.com/couchcryptid/energy-usage-report/internal/adapter/mapbox"
	"github.com/couchcryptid/energy-usage-report/internal/adapter/xlsx"
	"github.com/couchcryptid/energy-usage-report/internal/config"
	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/couchcryptid/energy-usage-report/internal/observability"
	"github.com/couchcryptid/energy-usage-report/internal/pipeline"
	"github.com/couchcryptid/energy-usage-report/internal/render"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	metrics := observability.NewMetrics()

	specs, err := config.LoadCharts(cfg.ChartSpecPath)
	if err != nil {
		logger.Error("failed to load chart specs", "error", err)
		return 1
	}

	reference, err := loadReference(cfg.CapitalsPath)
	if err != nil {
		logger.Error("failed to load capitals reference", "error", err)
		return 1
	}
	for _, d := range reference.Duplicates() {
		logger.Warn("duplicate capitals entry ignored", "country", d.Country, "capital", d.Name)
	}

	// The static reference always answers first; Mapbox is a fallback for
	// countries it does not list.
	locator := domain.ChainLocator{reference}
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		locator = append(locator, mapbox.NewCachedLocator(client, cfg.MapboxCacheSize, metrics))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	renderer, err := render.NewRenderer(cfg.OutputDir, cfg.ImageFormat, logger)
	if err != nil {
		logger.Error("failed to create renderer", "error", err)
		return 1
	}

	var sinks []pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
	}
	if cfg.XLSXPath != "" {
		sinks = append(sinks, xlsx.NewExporter(cfg.XLSXPath, logger))
	}

	p := pipeline.New(
		csvfile.NewLoader(cfg.DataPath, logger),
		pipeline.NewBuilder(locator, logger),
		renderer,
		specs,
		logger,
		metrics,
		sinks...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	report, err := p.Run(ctx)
	switch {
	case err != nil:
		logger.Error("report run failed", "error", err)
		code = 1
	case report.Failed() > 0:
		logger.Warn("report finished with chart failures", "failed", report.Failed())
	}

	if cfg.Serve && code == 0 {
		serve(ctx, cfg, p, renderer.Dir(), logger)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	return code
}

func loadReference(path string) (*capitals.Reference, error) {
	if path == "" {
		return capitals.Default(), nil
	}
	return capitals.LoadFile(path)
}

// serve exposes the finished report over HTTP until ctx is canceled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, chartDir string, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, chartDir, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
