package main

import (
	"os"

	"golang.org/x/sync/errgroup"

	"wastedash/internal/amqp"
	"wastedash/internal/backend"
	"wastedash/internal/cli"
	"wastedash/internal/config"
	"wastedash/internal/dataset"
	apphttp "wastedash/internal/http"
	"wastedash/internal/log"
	"wastedash/internal/metrics"
	"wastedash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadConfig((*config.Config).Validate)
	logger.Info("Starting wastedash", "port", cfg.Port, "backend", cfg.DataBackend)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	m := metrics.New()

	res, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc, err := dataset.NewService(res.Loader, dataset.Options{
		Source:        res.Source,
		MaterialLimit: cfg.MaterialLimit,
		Timeout:       cfg.LoadTimeout,
		Logger:        logger,
		Metrics:       m,
	})
	if err != nil {
		logger.Error("Failed to create dataset service", log.FieldError, err)
		os.Exit(1)
	}

	// Serve even when the first load fails; /readyz reports 503 until a
	// reload succeeds.
	if _, err := svc.Reload(ctx); err != nil {
		logger.Error("Initial dataset load failed", log.FieldError, err, log.FieldSource, res.Source)
	}

	srv := apphttp.NewServer(svc, apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		PieOther:           cfg.PieOther,
		Logger:             logger,
		Metrics:            m,
	})
	reloader := worker.NewReloadWorker(svc, cfg.ReloadInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return reloader.RunPeriodic(gctx) })

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		client.SetMetrics(m)
		g.Go(func() error { return reloader.RunConsumer(gctx, client) })
	} else {
		logger.Info("AMQP disabled - reloads only on interval", "interval", cfg.ReloadInterval.String())
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		cancel()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
