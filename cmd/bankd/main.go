// Command bankd runs the banking API server over an in-memory ledger.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"bank-ledger/pkg/api"
	"bank-ledger/pkg/config"
	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/logging"
	"bank-ledger/pkg/metrics"
	promcollector "bank-ledger/pkg/metrics/prometheus"
	"bank-ledger/pkg/userfilter"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	adminKey := cfg.Server.AdminKey
	if adminKey == "" {
		adminKey = uuid.NewString()
		logger.Info("no admin key configured, generated one", zap.String("admin_key", adminKey))
	}

	var collector metrics.Collector = metrics.NoOpCollector{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		pc := promcollector.NewPrometheusCollector(cfg.Metrics.Namespace)
		registry := prometheus.NewRegistry()
		registry.MustRegister(pc)
		collector = pc
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	led := ledger.New()
	filter := userfilter.New(cfg.Ledger.ExpectedAccounts, cfg.Ledger.FilterFalsePositiveRate)

	server := api.NewServer(led, filter, collector, logger.Named("api"), api.ServerConfig{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout.Std(),
		WriteTimeout:    cfg.Server.WriteTimeout.Std(),
		StartingBalance: cfg.Ledger.StartingBalance,
		AdminKey:        adminKey,
		MetricsHandler:  metricsHandler,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("stopped")
}
