package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	httpadapter "github.com/canopyrisk/compliance-engine/internal/adapter/http"
	kafkaadapter "github.com/canopyrisk/compliance-engine/internal/adapter/kafka"
	"github.com/canopyrisk/compliance-engine/internal/cache"
	"github.com/canopyrisk/compliance-engine/internal/config"
	"github.com/canopyrisk/compliance-engine/internal/observability"
	"github.com/canopyrisk/compliance-engine/internal/ranking"
	"github.com/canopyrisk/compliance-engine/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis result cache (feature-flagged via REDIS_ADDR).
	var opts []ranking.Option
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		opts = append(opts, ranking.WithCache(cache.New(client, cfg.CacheTTL, logger)))
		logger.Info("result cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		logger.Info("result cache disabled")
	}
	opts = append(opts, ranking.WithEngagement(store))

	svc := ranking.New(store, store, store, store, store, ranking.Config{
		WindowHours:       cfg.WindowHours,
		DemoWindowHours:   cfg.DemoWindowHours,
		DemoBusinessNames: cfg.DemoBusinessNames,
		Workers:           cfg.RankingWorkers,
		DefaultLimit:      cfg.RankingLimit,
		TrendDays:         cfg.TrendDays,
	}, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, store, logger)

	// Nightly snapshot rebuild.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RebuildSchedule, func() {
		if _, err := svc.RebuildSnapshots(ctx, "cron"); err != nil {
			logger.Error("scheduled rebuild failed", "error", err)
		}
	}); err != nil {
		logger.Error("invalid rebuild schedule", "schedule", cfg.RebuildSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Event-driven rebuilds (feature-flagged via KAFKA_ENABLED).
	if cfg.KafkaEnabled {
		consumer := kafkaadapter.NewConsumer(cfg, svc, logger)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("rebuild consumer error", "error", err)
			}
		}()
		logger.Info("rebuild consumer enabled", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	} else {
		logger.Info("rebuild consumer disabled")
	}

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
