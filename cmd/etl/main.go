package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/pm25-etl/internal/adapter/gios"
	"github.com/couchcryptid/pm25-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/pm25-etl/internal/adapter/kafka"
	"github.com/couchcryptid/pm25-etl/internal/adapter/parquet"
	"github.com/couchcryptid/pm25-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/pm25-etl/internal/config"
	"github.com/couchcryptid/pm25-etl/internal/observability"
	"github.com/couchcryptid/pm25-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("etl failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	client := gios.NewClient(cfg.GIOSBaseURL, cfg.HTTPTimeout, metrics, logger)
	p := pipeline.New(client, client, snapshot.NewFileWriter(cfg.OutputPath, logger), cfg.Catalog, cfg.Years, logger, metrics)

	// The ops server is optional. When enabled it outlives the run so the final
	// metrics and readiness stay observable until the process is signalled.
	var srv *httpadapter.Server
	var srvErr <-chan error
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		srvErr = startServer(srv, logger)
		defer shutdown(cfg, srv, logger)
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	report, err := pipeline.Analyze(res.Table, cfg.Years, pipeline.AnalysisOptions{
		Threshold: cfg.Threshold,
		TopN:      cfg.TopN,
	})
	if err != nil {
		return err
	}

	sinks := pipeline.Sinks{Report: snapshot.NewReportWriter(cfg.ReportDir, logger)}
	if cfg.ParquetPath != "" {
		sinks.Observations = parquet.NewWriter(cfg.ParquetPath, logger)
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks.Exceedances = writer
	}

	if err := pipeline.Export(ctx, report, sinks, logger, metrics); err != nil {
		return err
	}

	if srv != nil {
		logger.Info("run complete, serving ops endpoints until signalled")
		return waitForStop(ctx, srvErr)
	}
	return nil
}

// startServer runs srv in the background. The returned channel receives the
// error if the server stops for any reason other than a graceful shutdown.
func startServer(srv *httpadapter.Server, logger *slog.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			errc <- fmt.Errorf("ops server: %w", err)
		}
	}()
	return errc
}

// waitForStop blocks until the process is signalled or the ops server fails.
func waitForStop(ctx context.Context, srvErr <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-srvErr:
		return err
	}
}

func shutdown(cfg *config.Config, srv *httpadapter.Server, logger *slog.Logger) {
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
