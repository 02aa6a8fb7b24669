package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/ntak-rms/internal/app"
	"github.com/noah-isme/ntak-rms/internal/config"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/queue"
	"github.com/noah-isme/ntak-rms/internal/submission"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.Component(obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel), "worker")

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	if cfg.Obs.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:       "ntak-worker",
			ServiceVersion:    cfg.NTAKSoftwareVersion,
			Endpoint:          cfg.Obs.OTLPEndpoint,
			Exporter:          cfg.Obs.TracingExporter,
			SamplingRatio:     cfg.Obs.TracingSampling,
			Environment:       cfg.AppEnv,
			SoftwareRegNumber: cfg.NTAKSoftwareRegNumber,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	if addr := cfg.Obs.WorkerMetricsAddr; addr != "" {
		metricsSrv := &http.Server{Addr: addr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics listener")
			}
		}()
		defer func() { _ = metricsSrv.Close() }()
	}

	srv := queue.NewServer(deps.RedisConnOpt, queue.ServerConfig{
		Concurrency:     cfg.QueueConcurrency,
		RetryBase:       cfg.RetryBase,
		ShutdownTimeout: 20 * time.Second,
		Logger:          logger,
	})
	mux := queue.NewServeMux(submission.Worker{Service: deps.Submissions}, logger)

	logger.Info().Int("concurrency", cfg.QueueConcurrency).Str("queue", queue.DefaultQueue).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
